package models

// CandidateRecord represents a frequency whose average power exceeded the
// detection threshold
type CandidateRecord struct {
	FreqHz     float64 `json:"freq_hz" yaml:"freq_hz" doc:"Frequency in Hz"`
	AvgPowerDB float64 `json:"avg_power_db" yaml:"avg_power_db" doc:"Average power over all sweeps in dB"`
}

// FrequencyMHz returns the candidate frequency in megahertz
func (c CandidateRecord) FrequencyMHz() float64 {
	return c.FreqHz / 1e6
}
