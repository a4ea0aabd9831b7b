package core

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/catalog"
	"github.com/joseph-ayodele/rx-extractor/internal/common"
	"github.com/joseph-ayodele/rx-extractor/internal/core/fields"
	"github.com/joseph-ayodele/rx-extractor/internal/entity"
)

const rxText = `
Dr John Smith, M.D
2 Non-Important Street,
New York, Phone (000)-111-2222

Name: Marta Sharapova Date: 5/11/2022

Address: 9 tennis court, new Russia, DC

Prednisone 20mg
Lialda 2.4 gram
xyzdrug 10mg
`

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.ReferenceRecord{
		{Name: "Prednisone 20 Tablet", Composition: "Prednisone (20mg)", Manufacturer: "Wockhardt", SideEffects: "Insomnia"},
		{Name: "Lialda 1.2g Tablet", Composition: "Mesalamine (1.2g)", Manufacturer: "Takeda", SideEffects: "Headache"},
	})
}

func TestParse(t *testing.T) {
	p := NewProcessor(testCatalog(), nil)
	res := p.Parse(rxText)

	require.NotNil(t, res.PatientName)
	assert.Equal(t, "Marta Sharapova", *res.PatientName)
	require.NotNil(t, res.DoctorName)
	assert.Equal(t, "John Smith", *res.DoctorName)
	require.NotNil(t, res.Date)
	assert.Equal(t, "5/11/2022", *res.Date)
	require.NotNil(t, res.PatientAddress)
	assert.Equal(t, "9 tennis court, new Russia, DC", *res.PatientAddress)

	require.Len(t, res.Medicines, 3)
	assert.Equal(t, "Prednisone", res.Medicines[0].Name)
	assert.Equal(t, "Wockhardt", res.Medicines[0].Manufacturer)
	assert.Equal(t, "Lialda", res.Medicines[1].Name)
	assert.Equal(t, "2.4 gram", res.Medicines[1].Dosage)
	assert.Equal(t, "Takeda", res.Medicines[1].Manufacturer)
	assert.Equal(t, "Xyzdrug", res.Medicines[2].Name)
	assert.Equal(t, constants.NotAvailable, res.Medicines[2].Composition)
}

func TestParse_MalformedInput(t *testing.T) {
	p := NewProcessor(testCatalog(), nil)
	for _, text := range []string{"", string([]byte{0xff, 0xfe, 'D', 'r', ' ', 'x', ','})} {
		res := p.Parse(text)
		assert.Nil(t, res.PatientName)
		assert.Nil(t, res.DoctorName)
		assert.Nil(t, res.Date)
		assert.Nil(t, res.PatientAddress)
		assert.NotNil(t, res.Medicines)
		assert.Empty(t, res.Medicines)
	}
}

func TestParse_NoDoctorIsNull(t *testing.T) {
	res := NewProcessor(nil, nil).Parse("Name: Alice Doe Date: 2024-01-01")
	assert.Nil(t, res.DoctorName)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"doctor_name":null`)
	assert.Contains(t, string(b), `"medicines":[]`)
}

func TestParse_Idempotent(t *testing.T) {
	p := NewProcessor(testCatalog(), nil)
	a, err := json.Marshal(p.Parse(rxText))
	require.NoError(t, err)
	b, err := json.Marshal(p.Parse(rxText))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParse_EmptyCatalog(t *testing.T) {
	res := NewProcessor(catalog.Empty(), nil).Parse(rxText)
	require.Len(t, res.Medicines, 3)
	for _, m := range res.Medicines {
		assert.Equal(t, constants.NotAvailable, m.Composition)
		assert.Equal(t, constants.NotAvailable, m.Manufacturer)
		assert.Equal(t, constants.NotAvailable, m.SideEffects)
		assert.Equal(t, constants.NotAvailable, m.Frequency)
		assert.Equal(t, constants.NotAvailable, m.Duration)
	}
}

func TestParse_Concurrent(t *testing.T) {
	p := NewProcessor(testCatalog(), nil)
	want := p.Parse(rxText)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, p.Parse(rxText))
		}()
	}
	wg.Wait()
}

func TestExtract_Format(t *testing.T) {
	p := NewProcessor(testCatalog(), nil)

	res, err := p.Extract("prescription", rxText)
	require.NoError(t, err)
	assert.Len(t, res.Medicines, 3)

	_, err = p.Extract("invoice", rxText)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "supported: prescription")
}

func TestWithFieldExtractor(t *testing.T) {
	e := fields.MustNewExtractor([]fields.Rule{
		{Field: fields.PatientName, Pattern: `Patient:\s*(.+)`, CaseInsensitive: true},
	})
	res := NewProcessor(nil, nil, WithFieldExtractor(e)).Parse("Patient: Jane Roe\nDate: today")
	require.NotNil(t, res.PatientName)
	assert.Equal(t, "Jane Roe", *res.PatientName)
	// rule set has no date rule
	assert.Nil(t, res.Date)
}

func TestUnmatchedNames(t *testing.T) {
	p := NewProcessor(testCatalog(), nil)
	res := p.Parse(rxText)

	assert.Equal(t, []string{"Xyzdrug"}, UnmatchedNames(res, testCatalog()))

	// a staler catalog snapshot flags more
	stale := catalog.New([]catalog.ReferenceRecord{{Name: "Prednisone"}})
	assert.Equal(t, []string{"Lialda", "Xyzdrug"}, UnmatchedNames(res, stale))

	assert.Equal(t, []string{"Prednisone", "Lialda", "Xyzdrug"}, UnmatchedNames(res, nil))
	assert.Equal(t, []string{}, UnmatchedNames(entity.ExtractionResult{}, testCatalog()))
}

func TestValidate(t *testing.T) {
	res := NewProcessor(testCatalog(), nil).Parse("xyzdrug 10mg")
	v := Validate(res, testCatalog())
	require.Len(t, v.Medicines, 1)
	assert.Equal(t, "Xyzdrug", v.Medicines[0].Name)
	assert.Equal(t, []string{"Xyzdrug"}, v.InvalidMeds)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"invalid_meds":["Xyzdrug"]`)
	assert.Contains(t, string(b), `"patient_name":null`)
}
