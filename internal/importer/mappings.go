// Package importer turns raw spreadsheet tables into normalized candidate
// rows: header-to-field mapping, per-row cleaning and classification, and the
// review contract for rows that need human adjudication. It performs no I/O.
package importer

// Semantic fields a sheet can provide. The identifier is the only one whose
// absence aborts the mapping; everything else degrades to empty values.
const (
	FieldIdentifier  = "cedula"
	FieldName        = "nombre"
	FieldSurname     = "apellido"
	FieldEmail       = "correo"
	FieldCenter      = "centro"
	FieldInstitution = "institucion_articulada"
)

// fieldOrder fixes the pass order of the mapper so column consumption is
// deterministic across runs.
var fieldOrder = []string{FieldIdentifier, FieldName, FieldSurname, FieldEmail, FieldCenter, FieldInstitution}

// ColumnAliases lists the known header variants per semantic field.
var ColumnAliases = map[string][]string{
	FieldIdentifier:  {"CEDULA", "IDENTIFICACION", "DNI", "ID_PERSONA", "USUARIO", "CEDULA DE IDENTIDAD"},
	FieldName:        {"NOMBRE", "NOMBRES", "PRIMER NOMBRE"},
	FieldSurname:     {"APELLIDO", "APELLIDOS", "PATERNO", "APELLIDO(S)"},
	FieldEmail:       {"CORREO", "EMAIL", "MAIL", "E-MAIL"},
	FieldCenter:      {"CENTRO", "UBICACION", "LUGAR", "SEDE"},
	FieldInstitution: {"INSTITUCION", "INSTITUCION ARTICULADA"},
}

// RequiredFields are the columns a sheet must nominally carry. Only the
// identifier is enforced; the rest are best-effort.
var RequiredFields = []string{FieldIdentifier, FieldName, FieldSurname, FieldEmail, FieldCenter}

// CenterCorrections maps misspelled or legacy center names to the canonical
// ones registered in the database.
var CenterCorrections = map[string]string{
	"CENTRO LOCAL ECU 911 SAN CRISTOBAL": "CENTRO LOCAL ECU 911 GALAPAGOS",
	"PLANTA CENTRAL":                     "CENTRO ZONAL ECU 911 QUITO",
	"CIUDADANO":                          "CENTRO ZONAL ECU 911 QUITO",
}
