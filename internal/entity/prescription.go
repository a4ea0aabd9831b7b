package entity

// MedicineToken is a candidate medicine mention found in OCR text, before
// catalog reconciliation. RawName keeps the case it had in the text.
type MedicineToken struct {
	RawName string `json:"raw_name"`
	Dosage  string `json:"dosage"`
}

// ResolvedMedicine is a MedicineToken enriched with catalog metadata, or
// carrying constants.NotAvailable where the catalog had no match.
type ResolvedMedicine struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Composition  string `json:"composition"`
	Manufacturer string `json:"manufacturer"`
	SideEffects  string `json:"side_effects"`
}

// ExtractionResult is the structured record extracted from one prescription.
// Nil fields were not found in the text.
type ExtractionResult struct {
	PatientName    *string            `json:"patient_name"`
	DoctorName     *string            `json:"doctor_name"`
	Date           *string            `json:"date"`
	PatientAddress *string            `json:"patient_address"`
	Medicines      []ResolvedMedicine `json:"medicines"`
}

// ValidatedResult is what the service layer returns and stores: the
// extraction plus the names the catalog did not recognize.
type ValidatedResult struct {
	ExtractionResult
	InvalidMeds []string `json:"invalid_meds"`
}
