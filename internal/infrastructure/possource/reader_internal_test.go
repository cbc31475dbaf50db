package possource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_SinPatronUsaTablaSinCalificar(t *testing.T) {
	r := &Reader{}
	assert.Equal(t, `"sale_items"`, r.table(7, "sale_items"))
}

func TestTable_PatronPorNegocio(t *testing.T) {
	r := &Reader{pattern: "pos_%d"}
	assert.Equal(t, `"pos_7"."menulist"`, r.table(7, "menulist"))
}

func TestTable_EsquemaFijo(t *testing.T) {
	r := &Reader{pattern: "pos"}
	assert.Equal(t, `"pos"."stock_transactions"`, r.table(3, "stock_transactions"))
}

func TestTable_EscapaIdentificadores(t *testing.T) {
	r := &Reader{pattern: `pos"x`}
	assert.Equal(t, `"pos""x"."menulist"`, r.table(1, "menulist"))
}
