package validator

import "arbiscan/internal/model"

// Run executes every check (never short-circuits), per §4.6, and returns
// the aggregated result: valid iff every mandatory check passed.
func Run(in Input, t Thresholds) model.ValidationResult {
	exitLiquidity := in.Opportunity.ExitLowDepthUSD
	if in.Opportunity.ExitHighDepthUSD.LessThan(exitLiquidity) {
		exitLiquidity = in.Opportunity.ExitHighDepthUSD
	}

	depthResult, depthWarning := checkDepthVsHistory(in, t, exitLiquidity)

	checks := []model.CheckResult{
		checkExitLiquidity(in, t),
		checkPositionRatio(in, t, exitLiquidity),
		checkMaxSlippage(in, t),
		checkLatency(in, t),
		depthResult,
		checkSpreadAge(in, t),
		checkSpreadFreshness(in, t),
		checkBidAskSpread(in, t),
		checkInstantExit(in),
		checkDirectionValidity(in),
		checkDepositWithdraw(in),
		checkTransferBuffer(in),
	}

	result := model.ValidationResult{Checks: checks, Valid: true}
	for _, c := range checks {
		if !c.Passed && c.Mandatory {
			result.Valid = false
			result.FailedChecks = append(result.FailedChecks, c.Name)
		}
	}
	if depthWarning != "" {
		result.Warnings = append(result.Warnings, depthWarning)
	}
	return result
}
