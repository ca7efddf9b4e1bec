package indexer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

func diskConfig(t *testing.T) config.IndexConfig {
	t.Helper()
	return config.IndexConfig{DataDir: t.TempDir(), Workers: 1}
}

func memConfig() config.IndexConfig {
	return config.IndexConfig{InMemory: true, Workers: 1}
}

var (
	addDoc = TestDocument{
		ClassName:  "Calc",
		MethodName: "add",
		Parameters: "",
		Content:    "calc\nadd\nadds two numbers\nassert equals add",
	}
	subtractDoc = TestDocument{
		ClassName:  "Calc",
		MethodName: "subtract",
		Parameters: "",
		Content:    "calc\nsubtract\nassert equals subtract",
	}
)

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Doc.TestID()
	}
	return out
}

func TestKey(t *testing.T) {
	assert.Equal(t, "Calc#add(int,int)", Key("Calc", "add", "int,int"))
	assert.Equal(t, "Calc#add()", addDoc.Key())
	assert.Equal(t, "Calc.add", addDoc.TestID())
}

func TestInsertInvisibleUntilRefresh(t *testing.T) {
	s, err := Open(memConfig(), "proj")
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.Existed())

	require.NoError(t, s.Insert(addDoc))
	hits, err := s.Search("add", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, 1, s.Stats().Pending)

	require.NoError(t, s.Refresh())
	hits, err = s.Search("add", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Calc.add"}, ids(hits))
	assert.Equal(t, Stats{Docs: 1, Pending: 0, Generation: 1}, s.Stats())
}

func TestSearchRanking(t *testing.T) {
	s, err := Open(memConfig(), "proj")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Insert(addDoc))
	require.NoError(t, s.Insert(subtractDoc))
	require.NoError(t, s.Refresh())

	hits, err := s.Search("calc add", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"Calc.add", "Calc.subtract"}, ids(hits))
	assert.Greater(t, hits[0].Score, hits[1].Score)

	hits, err = s.Search("calc add", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Calc.add"}, ids(hits))

	hits, err = s.Search("", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchTieBreakByInsertion(t *testing.T) {
	s, err := Open(memConfig(), "proj")
	require.NoError(t, err)
	defer s.Close()

	for _, m := range []string{"mul", "div", "mod"} {
		require.NoError(t, s.Insert(TestDocument{ClassName: "Calc", MethodName: m, Content: "calc\n" + m}))
	}
	require.NoError(t, s.Refresh())

	hits, err := s.Search("calc", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Calc.mul", "Calc.div", "Calc.mod"}, ids(hits))
	assert.Equal(t, hits[0].Score, hits[2].Score)
}

func TestSearchBadQuery(t *testing.T) {
	s, err := Open(memConfig(), "proj")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Insert(addDoc))
	require.NoError(t, s.Refresh())

	hits, err := s.Search("add(", 10)
	assert.ErrorIs(t, err, errors.ErrBadQuery)
	assert.Empty(t, hits)
}

func TestRemoveByKey(t *testing.T) {
	s, err := Open(memConfig(), "proj")
	require.NoError(t, err)
	defer s.Close()

	overload := addDoc
	overload.Parameters = "int,int"
	overload.Content = "calc\nadd\nint\nint"
	require.NoError(t, s.Insert(addDoc))
	require.NoError(t, s.Insert(overload))
	require.NoError(t, s.Refresh())

	removed, ok, err := s.RemoveByKey("Calc", "add", "int,int")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, overload, *removed)

	_, ok, err = s.RemoveByKey("Calc", "add", "int,int")
	require.NoError(t, err)
	assert.False(t, ok, "second removal finds nothing")

	_, ok, err = s.RemoveByKey("Calc", "missing", "")
	require.NoError(t, err)
	assert.False(t, ok)

	hits, err := s.Search("add", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2, "removal invisible before refresh")

	require.NoError(t, s.Refresh())
	hits, err = s.Search("add", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "", hits[0].Doc.Parameters, "other overload untouched")
}

func TestRemovePendingInsert(t *testing.T) {
	s, err := Open(memConfig(), "proj")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Insert(addDoc))
	removed, ok, err := s.RemoveByKey("Calc", "add", "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, addDoc, *removed)

	require.NoError(t, s.Refresh())
	assert.Empty(t, s.Documents())
}

func TestInsertSameIdentityReplaces(t *testing.T) {
	s, err := Open(memConfig(), "proj")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Insert(addDoc))
	require.NoError(t, s.Refresh())
	updated := addDoc
	updated.Content = "calc\nadd\nplus"
	require.NoError(t, s.Insert(updated))
	require.NoError(t, s.Refresh())

	docs := s.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "calc\nadd\nplus", docs[0].Content)
}

func TestPersistenceAcrossOpen(t *testing.T) {
	cfg := diskConfig(t)

	s, err := Open(cfg, "proj")
	require.NoError(t, err)
	assert.False(t, s.Existed())
	require.NoError(t, s.Insert(addDoc))
	require.NoError(t, s.Insert(subtractDoc))
	require.NoError(t, s.Refresh())
	require.NoError(t, s.Close())

	s, err = Open(cfg, "proj")
	require.NoError(t, err)
	assert.True(t, s.Existed())
	assert.Equal(t, []TestDocument{addDoc, subtractDoc}, s.Documents())

	// Sequence numbers continue after reopen, so a reinserted document
	// sorts after the survivors.
	_, ok, err := s.RemoveByKey("Calc", "add", "")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Insert(addDoc))
	require.NoError(t, s.Refresh())
	assert.Equal(t, []TestDocument{subtractDoc, addDoc}, s.Documents())
	require.NoError(t, s.Close())
}

func TestCloseCommitsPending(t *testing.T) {
	cfg := diskConfig(t)

	s, err := Open(cfg, "proj")
	require.NoError(t, err)
	require.NoError(t, s.Insert(addDoc))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s, err = Open(cfg, "proj")
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, s.Existed())
	assert.Equal(t, []TestDocument{addDoc}, s.Documents())
}

func TestEmptyBootstrapMarksExisted(t *testing.T) {
	cfg := diskConfig(t)

	s, err := Open(cfg, "proj")
	require.NoError(t, err)
	require.NoError(t, s.Refresh())
	require.NoError(t, s.Close())

	s, err = Open(cfg, "proj")
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, s.Existed())
}

func TestSingleWriter(t *testing.T) {
	cfg := diskConfig(t)

	first, err := Open(cfg, "proj")
	require.NoError(t, err)

	_, err = Open(cfg, "proj")
	require.ErrorIs(t, err, errors.ErrStoreLocked)
	assert.Equal(t, errors.ExitUnavailable, errors.ExitCode(err))

	other, err := Open(cfg, "other")
	require.NoError(t, err, "namespaces lock independently")
	require.NoError(t, other.Close())

	require.NoError(t, first.Close())
	again, err := Open(cfg, "proj")
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestClosedStore(t *testing.T) {
	s, err := Open(memConfig(), "proj")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Insert(addDoc), errors.ErrStoreClosed)
	assert.ErrorIs(t, s.Refresh(), errors.ErrStoreClosed)
	_, _, err = s.RemoveByKey("Calc", "add", "")
	assert.ErrorIs(t, err, errors.ErrStoreClosed)
	_, err = s.Search("add", 1)
	assert.ErrorIs(t, err, errors.ErrStoreClosed)
}

func TestOpenInvalidNamespace(t *testing.T) {
	for _, ns := range []string{"", "..", "a/b"} {
		_, err := Open(memConfig(), ns)
		assert.ErrorIs(t, err, errors.ErrInvalidInput, "namespace %q", ns)
	}
}

func BenchmarkSearch(b *testing.B) {
	s, err := Open(memConfig(), "bench")
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()
	for i := 0; i < 2000; i++ {
		doc := TestDocument{
			ClassName:  fmt.Sprintf("Suite%d", i%50),
			MethodName: fmt.Sprintf("test%d", i),
			Content:    fmt.Sprintf("suite\ntest\nassert equals value%d\ncalc add subtract", i%17),
		}
		if err := s.Insert(doc); err != nil {
			b.Fatal(err)
		}
	}
	if err := s.Refresh(); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Search("calc add value3", 5); err != nil {
			b.Fatal(err)
		}
	}
}

func TestDocumentsIn(t *testing.T) {
	s, err := Open(diskConfig(t), "proj")
	require.NoError(t, err)
	defer s.Close()

	add, sub := addDoc, subtractDoc
	add.SourcePath = "src/Calc.java"
	sub.SourcePath = "src/Calc.java"
	other := TestDocument{ClassName: "Foo", MethodName: "bar", SourcePath: "src/Foo.java", Content: "foo\nbar"}
	require.NoError(t, s.Insert(sub))
	require.NoError(t, s.Insert(other))

	docs, err := s.DocumentsIn("src/Calc.java")
	require.NoError(t, err)
	assert.Equal(t, []TestDocument{sub}, docs, "staged documents are included")

	require.NoError(t, s.Insert(add))
	require.NoError(t, s.Refresh())
	docs, err = s.DocumentsIn("src/Calc.java")
	require.NoError(t, err)
	assert.Equal(t, []TestDocument{add, sub}, docs, "ordered by identity key")

	_, _, err = s.RemoveByKey("Calc", "subtract", "")
	require.NoError(t, err)
	moved := add
	moved.SourcePath = "src/Other.java"
	require.NoError(t, s.Insert(moved))
	docs, err = s.DocumentsIn("src/Calc.java")
	require.NoError(t, err)
	assert.Empty(t, docs, "staged removal and relocation hide committed documents")

	docs, err = s.DocumentsIn("src/Other.java")
	require.NoError(t, err)
	assert.Equal(t, []TestDocument{moved}, docs)

	require.NoError(t, s.Refresh())
	docs, err = s.DocumentsIn("src/Other.java")
	require.NoError(t, err)
	assert.Equal(t, []TestDocument{moved}, docs)
	docs, err = s.DocumentsIn("src/Foo.java")
	require.NoError(t, err)
	assert.Equal(t, []TestDocument{other}, docs)
}
