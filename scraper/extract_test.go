package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/oab/models"
)

const cnaRow = `<div class="row">
  <div class="rowName"><span>Nome:</span><span>MARIA DA SILVA</span></div>
  <div class="rowInsc"><span>Inscrição:</span><span>123456</span></div>
  <div class="rowUf"><span>Seccional:</span><span>SP</span></div>
  <div class="rowTipoInsc"><span>Tipo:</span><span>ADVOGADA</span></div>
  <div class="rowData"><span>Data:</span><span>Inscrita em 01/02/2003</span></div>
</div>`

func snapshot(t *testing.T, rawHTML string) Element {
	t.Helper()
	el, err := Snapshot(rawHTML)
	require.NoError(t, err)
	return el
}

func TestExtract_StructuredRow(t *testing.T) {
	fields := Extract(context.Background(), snapshot(t, cnaRow))

	assert.Equal(t, "MARIA DA SILVA", fields[models.FieldName])
	assert.Equal(t, "123456", fields[models.FieldNumber])
	assert.Equal(t, "SP", fields[models.FieldRegion])
	assert.Equal(t, "ADVOGADA", fields[models.FieldCategory])
	assert.Equal(t, "01/02/2003", fields[models.FieldInscribedAt])
	assert.False(t, fields.Has(models.FieldStatus))
}

func TestExtract_FirstSelectorWins(t *testing.T) {
	row := `<div class="row">
	  <div class="rowName"><span>Nome</span><span>FIRST</span><span>LAST</span></div>
	  <div class="nome">OTHER</div>
	</div>`

	fields := Extract(context.Background(), snapshot(t, row))

	assert.Equal(t, "FIRST", fields[models.FieldName])
}

func TestExtract_FallsThroughEmptySelectors(t *testing.T) {
	row := `<div class="row">
	  <div class="rowInsc"><span>   </span></div>
	  <span class="inscricao"> 98765 </span>
	</div>`

	fields := Extract(context.Background(), snapshot(t, row))

	assert.Equal(t, "98765", fields[models.FieldNumber])
}

func TestExtract_DateRequiresPattern(t *testing.T) {
	row := `<div class="row">
	  <div class="rowData"><span>sem data</span></div>
	  <span class="data">15/03/1999</span>
	</div>`

	fields := Extract(context.Background(), snapshot(t, row))

	assert.Equal(t, "15/03/1999", fields[models.FieldInscribedAt])
}

func TestExtract_StatusKeywordInference(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Situação: Ativo", "ATIVO"},
		{"Situação: INATIVO desde 2010", "INATIVO"},
		{"suspenso", "SUSPENSO"},
		{"Sem informação", ""},
		{"Relativo ao cadastro", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			row := `<div class="row"><div class="rowName"><span>Nome</span><span>ANA PAULA</span></div>
			  <div class="rowInsc"><span>x</span><span>1</span></div>
			  <div class="rowUf"><span>x</span><span>RJ</span></div>
			  <div class="rowTipoInsc"><span>x</span><span>ADVOGADO</span></div>
			  <p>` + tt.text + `</p></div>`
			fields := Extract(context.Background(), snapshot(t, row))
			assert.Equal(t, tt.want, fields[models.FieldStatus])
		})
	}
}

func TestExtract_SpanHeuristics(t *testing.T) {
	row := `<div class="row">
	  <span>JOSE CARLOS PEREIRA</span>
	  <span>54321</span>
	  <span>MG</span>
	  <span>Estagiário</span>
	  <span>10/10/2010</span>
	  <span>Regular</span>
	</div>`

	fields := Extract(context.Background(), snapshot(t, row))

	assert.Equal(t, "JOSE CARLOS PEREIRA", fields[models.FieldName])
	assert.Equal(t, "54321", fields[models.FieldNumber])
	assert.Equal(t, "MG", fields[models.FieldRegion])
	assert.Equal(t, "Estagiário", fields[models.FieldCategory])
	assert.Equal(t, "10/10/2010", fields[models.FieldInscribedAt])
	assert.Equal(t, "REGULAR", fields[models.FieldStatus])
}

func TestExtract_RegionHeuristicPrecedesName(t *testing.T) {
	// "PR" finds the region taken and matches no later classifier.
	row := `<div class="row"><span>SP</span><span>PR</span><span>ANA LIMA</span></div>`

	fields := Extract(context.Background(), snapshot(t, row))

	assert.Equal(t, "SP", fields[models.FieldRegion])
	assert.Equal(t, "ANA LIMA", fields[models.FieldName])
	assert.False(t, fields.Has(models.FieldCategory))
}

func TestExtract_HeuristicsSkippedWhenEnoughFields(t *testing.T) {
	row := `<div class="row">
	  <div class="rowName"><span>Nome</span><span>ANA LIMA</span></div>
	  <div class="rowInsc"><span>x</span><span>111</span></div>
	  <div class="rowUf"><span>x</span><span>BA</span></div>
	  <div class="rowTipoInsc"><span>x</span><span>ADVOGADA</span></div>
	  <span>22/02/2002</span>
	</div>`

	fields := Extract(context.Background(), snapshot(t, row))

	assert.False(t, fields.Has(models.FieldInscribedAt))
}

func TestExtract_NormalizesToSixKeys(t *testing.T) {
	row := `<div class="row"><div class="rowName"><span>Nome</span><span>ANA LIMA</span></div></div>`

	rec := Extract(context.Background(), snapshot(t, row)).Normalize()
	m := rec.Map()

	require.Len(t, m, 6)
	assert.Equal(t, "ANA LIMA", rec.Name)
	assert.Equal(t, models.NotFound, rec.Number)
	assert.Equal(t, models.NotFound, rec.Region)
	assert.Equal(t, models.NotFound, rec.Category)
	assert.Equal(t, models.NotFoundF, rec.InscribedAt)
	assert.Equal(t, models.NotFoundF, rec.Status)
}

// panicElement blows up on every call.
type panicElement struct{ *domElement }

func (panicElement) Query(context.Context, string) (Element, error) { panic("boom") }

func TestExtract_RecoversFromPanic(t *testing.T) {
	var fields models.Fields
	require.NotPanics(t, func() {
		fields = Extract(context.Background(), panicElement{})
	})
	assert.Empty(t, fields)
}
