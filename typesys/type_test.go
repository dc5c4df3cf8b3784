package typesys_test

import (
	"testing"

	"github.com/grapeloop/gpoe/typesys"
	"github.com/stretchr/testify/require"
)

func TestParseArgsAndReturn(t *testing.T) {
	ty := typesys.Parse("int -> int -> int")
	require.Equal(t, []string{"int", "int"}, ty.ArgTypes())
	require.Equal(t, "int", ty.ReturnType())
	require.Equal(t, 2, ty.Arity())
}

func TestAllVariantsPolymorphic(t *testing.T) {
	variants, err := typesys.AllVariants("'a[int|bool] -> 'a -> 'a")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"int -> int -> int", "bool -> bool -> bool"}, variants)
}

func TestAllVariantsSumType(t *testing.T) {
	variants, err := typesys.AllVariants("a|b -> c|d")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a -> c", "a -> d", "b -> c", "b -> d"}, variants)
}

func TestAllVariantsSimple(t *testing.T) {
	variants, err := typesys.AllVariants("int -> int")
	require.NoError(t, err)
	require.Equal(t, []string{"int -> int"}, variants)
}

func TestAllVariantsReuseBeforeDeclaration(t *testing.T) {
	_, err := typesys.AllVariants("'a -> int")
	require.Error(t, err)
}
