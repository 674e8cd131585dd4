package domain

import "fmt"

const (
	KindVoterDaily     = "voterDaily"
	KindCompanyMonthly = "companyMonthly"
)

// Os ids dos baldes seguem o formato herdado da coleção vote_counters.

func CounterKeyVoterDaily(codigo, dayKey string) string {
	return fmt.Sprintf("%s_%s_%s", KindVoterDaily, codigo, dayKey)
}

func CounterKeyCompanyMonthly(empresaID, monthKey string) string {
	return fmt.Sprintf("%s_%s_%s", KindCompanyMonthly, empresaID, monthKey)
}
