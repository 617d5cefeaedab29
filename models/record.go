package models

// Field identifies one attribute of a registration record. The string value
// is also the JSON key used for the record.
type Field string

const (
	FieldName        Field = "nome"
	FieldNumber      Field = "inscricao"
	FieldRegion      Field = "uf"
	FieldCategory    Field = "categoria"
	FieldInscribedAt Field = "data_inscricao"
	FieldStatus      Field = "situacao"
)

// Sentinels stored in place of a value the scraper could not find.
const (
	NotFound  = "Não encontrado"
	NotFoundF = "Não encontrada"
)

// MandatoryFields are backfilled with NotFound, OptionalFields with NotFoundF.
var (
	MandatoryFields = []Field{FieldName, FieldNumber, FieldRegion, FieldCategory}
	OptionalFields  = []Field{FieldInscribedAt, FieldStatus}
)

// AllFields returns every record field in display order.
func AllFields() []Field {
	all := make([]Field, 0, len(MandatoryFields)+len(OptionalFields))
	all = append(all, MandatoryFields...)
	return append(all, OptionalFields...)
}

// Query is a validated search: a full name and a region code.
type Query struct {
	Name   string
	Region string
}

// Fields is a partial field mapping produced during extraction.
// A key is present only when a non-empty value was found.
type Fields map[Field]string

// Has reports whether f holds a non-empty value.
func (fs Fields) Has(f Field) bool {
	return fs[f] != ""
}

// Set stores v under f unless f is already populated or v is empty.
// It reports whether the value was stored.
func (fs Fields) Set(f Field, v string) bool {
	if v == "" || fs.Has(f) {
		return false
	}
	fs[f] = v
	return true
}

// Record is a normalized registration record. Every field is either a real
// value or one of the sentinels, never empty.
type Record struct {
	Name        string `json:"nome"`
	Number      string `json:"inscricao"`
	Region      string `json:"uf"`
	Category    string `json:"categoria"`
	InscribedAt string `json:"data_inscricao"`
	Status      string `json:"situacao"`
}

// Normalize turns a partial mapping into a full Record, backfilling
// missing mandatory fields with NotFound and optional ones with NotFoundF.
func (fs Fields) Normalize() *Record {
	pick := func(f Field, sentinel string) string {
		if v := fs[f]; v != "" {
			return v
		}
		return sentinel
	}
	return &Record{
		Name:        pick(FieldName, NotFound),
		Number:      pick(FieldNumber, NotFound),
		Region:      pick(FieldRegion, NotFound),
		Category:    pick(FieldCategory, NotFound),
		InscribedAt: pick(FieldInscribedAt, NotFoundF),
		Status:      pick(FieldStatus, NotFoundF),
	}
}

// Map returns the record keyed by field, always with all six keys.
func (r *Record) Map() map[Field]string {
	return map[Field]string{
		FieldName:        r.Name,
		FieldNumber:      r.Number,
		FieldRegion:      r.Region,
		FieldCategory:    r.Category,
		FieldInscribedAt: r.InscribedAt,
		FieldStatus:      r.Status,
	}
}
