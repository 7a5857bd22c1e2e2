package market

// InstrumentID identifies an instrument in the store. IDs are assigned at
// ingest time and never reused.
type InstrumentID int64

// CashInstrument is the reserved id used for the synthetic cash row in
// portfolio snapshots. It is not a real instrument and never appears in the
// price or factor tables.
const CashInstrument InstrumentID = 0

// Instrument is the reference row for one listed security.
type Instrument struct {
	ID       InstrumentID
	Symbol   string
	Name     string
	Tradable bool
}
