package core

// FinancialSummary is the headline view over the full transaction
// ledger: revenue, expenses, net profit and margin.
type FinancialSummary struct {
	TotalRevenue  Money   `json:"totalRevenue"`
	TotalExpenses Money   `json:"totalExpenses"`
	NetProfit     Money   `json:"netProfit"`
	ProfitMargin  float64 `json:"profitMargin"`
}

// ChannelBalances holds the running balance per payment channel.
type ChannelBalances struct {
	Cash      Money `json:"cash"`
	BankTotal Money `json:"bankTotal"`
}

// Margin expresses profit as a percentage of revenue, guarding the
// zero-revenue case.
func Margin(profit, revenue Money) float64 {
	if revenue.Cents <= 0 {
		return 0
	}
	return profit.Units() / revenue.Units() * 100
}
