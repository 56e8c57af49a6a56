package requisition

import "github.com/shopspring/decimal"

// ApprovalPolicy decides which approval steps a requisition needs.
// The manager step is always present; larger amounts add procurement and
// then finance sign-off.
type ApprovalPolicy struct {
	ProcurementThreshold decimal.Decimal
	FinanceThreshold     decimal.Decimal
}

// DefaultApprovalPolicy returns thresholds of 5,000 and 25,000
func DefaultApprovalPolicy() ApprovalPolicy {
	return ApprovalPolicy{
		ProcurementThreshold: decimal.NewFromInt(5000),
		FinanceThreshold:     decimal.NewFromInt(25000),
	}
}

// Chain returns the ordered approver roles for the total
func (p ApprovalPolicy) Chain(total decimal.Decimal) []ApproverRole {
	chain := []ApproverRole{ApproverManager}
	if total.GreaterThanOrEqual(p.ProcurementThreshold) {
		chain = append(chain, ApproverProcurement)
	}
	if total.GreaterThanOrEqual(p.FinanceThreshold) {
		chain = append(chain, ApproverFinance)
	}
	return chain
}
