package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/ir-test-selection/pkg/errors"
)

const calcTest = `package demo;

import org.junit.Test;

public class CalcTest {
    /**
     * Adds two numbers.
     */
    @Test
    public void add() {
        int a = 1;
        assertEquals(3, calc.add(a, 2));
    }

    @org.junit.Test
    @Ignore("flaky")
    public void subtract(int left, String... names) {
        return;
    }

    private void helper(java.util.Map<String, Integer> values) {
    }

    static class Inner {
        @Test
        void nested() {}
    }
}
`

func TestJavaParserDeclarations(t *testing.T) {
	p := NewJavaParser(0)
	f, err := p.Parse(context.Background(), "src/test/java/demo/CalcTest.java", []byte(calcTest))
	require.NoError(t, err)

	require.Len(t, f.Classes, 2)
	assert.Equal(t, "CalcTest", f.Classes[0].Name)
	assert.Equal(t, NewRange(5, 28), f.Classes[0].Range)
	assert.Equal(t, "Inner", f.Classes[1].Name)

	require.Len(t, f.Methods, 4)
	add := f.Methods[0]
	assert.Equal(t, "add", add.Name)
	assert.Equal(t, "CalcTest", add.Class)
	assert.Equal(t, []string{"Test"}, add.Annotations)
	assert.Equal(t, "Adds two numbers.", add.DocComment)
	assert.Equal(t, []string{"int a = 1;", "assertEquals(3, calc.add(a, 2));"}, add.Statements)
	assert.Equal(t, NewRange(9, 13), add.Range)
	assert.Empty(t, add.Signature())

	sub := f.Methods[1]
	assert.Equal(t, []string{"Test", "Ignore"}, sub.Annotations)
	assert.Equal(t, "int,String...", sub.Signature())
	assert.Empty(t, sub.DocComment)

	helper := f.Methods[2]
	assert.Equal(t, []string{"java.util.Map<String, Integer>"}, helper.Parameters)

	nested := f.Methods[3]
	assert.Equal(t, "Inner", nested.Class)

	markers := Markers{Test: []string{"Test"}, Ignore: []string{"Ignore"}}
	assert.True(t, markers.IsTest(add))
	assert.False(t, markers.IsIgnored(add))
	assert.True(t, markers.IsIgnored(sub))
	assert.False(t, markers.IsTest(helper))

	methods := f.MethodIndex()
	assert.Equal(t, []string{"add"}, methods.Intersecting(SourceRange{StartLine: 11, LineCount: 1}))
}

func TestJavaParserUnavailableRange(t *testing.T) {
	src := `public class Broken {
    void ok() {
        run();
    }

    void bad() {
        int x = ;
    }
}
`
	f, err := NewJavaParser(0).Parse(context.Background(), "Broken.java", []byte(src))
	require.NoError(t, err)

	var ok, bad *Method
	for i := range f.Methods {
		switch f.Methods[i].Name {
		case "ok":
			ok = &f.Methods[i]
		case "bad":
			bad = &f.Methods[i]
		}
	}
	require.NotNil(t, ok)
	require.NoError(t, ok.RangeErr)
	if bad != nil {
		assert.ErrorIs(t, bad.RangeErr, errors.ErrRangeUnavailable)
		assert.NotContains(t, f.MethodIndex(), "bad")
	}
	assert.Contains(t, f.MethodIndex(), "ok")
}

func TestJavaParserRejectsInvalidInput(t *testing.T) {
	p := NewJavaParser(16)
	_, err := p.Parse(context.Background(), "Big.java", []byte("public class Big { void a() {} }"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = NewJavaParser(0).Parse(context.Background(), "Bin.java", []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
