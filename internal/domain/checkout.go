package domain

// Checkout step constants. The sequence is strictly linear; StepComplete is
// terminal.
const (
	StepCart     = "cart"
	StepAddress  = "address"
	StepPayment  = "payment"
	StepReview   = "review"
	StepComplete = "complete"
)

// stepOrder is the forward order of the checkout sequence.
var stepOrder = []string{StepCart, StepAddress, StepPayment, StepReview, StepComplete}

// Steps returns the checkout steps in forward order.
func Steps() []string {
	out := make([]string, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// IsValidStep checks whether the given step name is part of the sequence.
func IsValidStep(step string) bool {
	for _, s := range stepOrder {
		if s == step {
			return true
		}
	}
	return false
}

// NextStep returns the step after the given one, or "" if the step is
// terminal or unknown.
func NextStep(step string) string {
	for i, s := range stepOrder {
		if s == step && i+1 < len(stepOrder) {
			return stepOrder[i+1]
		}
	}
	return ""
}

// PrevStep returns the step before the given one, or "" if the step is the
// first or unknown.
func PrevStep(step string) string {
	for i, s := range stepOrder {
		if s == step && i > 0 {
			return stepOrder[i-1]
		}
	}
	return ""
}
