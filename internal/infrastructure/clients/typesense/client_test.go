package typesense

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotsSchema(t *testing.T) {
	schema := LotsSchema()

	assert.Equal(t, LotsCollection, schema.Name)
	require.NotNil(t, schema.DefaultSortingField)
	assert.Equal(t, "lot_id", *schema.DefaultSortingField)

	fields := map[string]string{}
	for _, f := range schema.Fields {
		fields[f.Name] = f.Type
	}
	assert.Equal(t, "string", fields["name"])
	assert.Equal(t, "geopoint", fields["location"])
	assert.Equal(t, "int32", fields["lot_id"])
}
