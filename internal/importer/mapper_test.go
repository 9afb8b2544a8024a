package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumnsExactAliases(t *testing.T) {
	headers := []string{"Cédula de Identidad", "Nombres", "Apellidos", "E-mail", "Sede", "Institución", "Taller 1", "Examen Final"}

	cm, err := MapColumns(headers, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, cm.Column(FieldIdentifier))
	assert.Equal(t, 1, cm.Column(FieldName))
	assert.Equal(t, 2, cm.Column(FieldSurname))
	assert.Equal(t, 3, cm.Column(FieldEmail))
	assert.Equal(t, 4, cm.Column(FieldCenter))
	assert.Equal(t, 5, cm.Column(FieldInstitution))
	assert.Equal(t, []int{6, 7}, cm.Remaining)
	assert.Equal(t, []string{"TALLER 1", "EXAMEN FINAL"}, cm.RemainingHeaders())
}

func TestMapColumnsSubstring(t *testing.T) {
	headers := []string{"NUMERO DE CEDULA", "NOMBRE COMPLETO", "NOTA"}

	cm, err := MapColumns(headers, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, cm.Column(FieldIdentifier))
	assert.Equal(t, 1, cm.Column(FieldName))
	assert.Equal(t, -1, cm.Column(FieldSurname))
}

func TestMapColumnsNoColumnReuse(t *testing.T) {
	// A column consumed by an earlier field must not satisfy a later one.
	headers := []string{"CEDULA", "APELLIDOS Y NOMBRES"}

	cm, err := MapColumns(headers, nil)
	require.NoError(t, err)

	// Name claims the combined column first (field order), surname loses out.
	assert.Equal(t, 1, cm.Column(FieldName))
	assert.Equal(t, -1, cm.Column(FieldSurname))
}

func TestMapColumnsManualResolver(t *testing.T) {
	headers := []string{"IDENTIFICADOR UNICO", "ALUMNO"}

	var asked []string
	resolver := func(field string, available []string) string {
		asked = append(asked, field)
		if field == FieldIdentifier {
			return "IDENTIFICADOR UNICO"
		}
		return ""
	}

	cm, err := MapColumns(headers, resolver)
	require.NoError(t, err)
	assert.Equal(t, 0, cm.Column(FieldIdentifier))
	assert.Contains(t, asked, FieldIdentifier)
	// Unresolved fields stay unmapped without error.
	assert.Equal(t, -1, cm.Column(FieldEmail))
}

func TestMapColumnsIdentifierRequired(t *testing.T) {
	_, err := MapColumns([]string{"NOMBRE", "APELLIDO"}, nil)
	assert.Error(t, err)
}
