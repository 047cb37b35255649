package pos

import "math"

// Reconciler validates and settles the payment for one order. The flat
// discount comes off the order total before anything else; the remaining
// balance logic, quick split and confirmation all work against the resulting
// final total. Every comparison tolerates Epsilon of floating-point noise.
type Reconciler struct {
	order    Order
	taxRate  float64
	discount float64
	split    bool
	parts    []PartialPayment
}

func NewReconciler(order Order, taxRate float64) *Reconciler {
	return &Reconciler{order: order, taxRate: taxRate}
}

func (r *Reconciler) Order() Order { return r.order }

// SetDiscount applies a flat currency amount off the total (distinct from
// per-line percentage discounts). Negative input is treated as zero.
func (r *Reconciler) SetDiscount(amount float64) {
	if amount < 0 {
		amount = 0
	}
	r.discount = amount
}

func (r *Reconciler) Discount() float64 { return r.discount }

// FinalTotal never goes below zero; a discount larger than the total makes
// the order free.
func (r *Reconciler) FinalTotal() float64 {
	return math.Max(0, r.order.Total-r.discount)
}

func (r *Reconciler) FinalTax() float64 {
	_, tax := decomposeTotal(r.FinalTotal(), r.taxRate)
	return tax
}

// SetSplitMode toggles between full and split payment. Leaving split mode
// drops any partial payments already added.
func (r *Reconciler) SetSplitMode(split bool) {
	r.split = split
	if !split {
		r.parts = nil
	}
}

func (r *Reconciler) SplitMode() bool { return r.split }

func (r *Reconciler) TotalPaid() float64 {
	var paid float64
	for _, p := range r.parts {
		paid += p.Amount
	}
	return paid
}

func (r *Reconciler) Remaining() float64 {
	return r.FinalTotal() - r.TotalPaid()
}

func (r *Reconciler) Parts() []PartialPayment {
	out := make([]PartialPayment, len(r.parts))
	copy(out, r.parts)
	return out
}

// AddPartial records one payment leg. The amount may exceed the remaining
// balance only within Epsilon (floating-point noise), never beyond it.
func (r *Reconciler) AddPartial(method PaymentMethod, amount float64) error {
	if !r.split {
		return ErrNotSplitPayment
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > r.Remaining()+Epsilon {
		return ErrPartialTooLarge
	}
	r.parts = append(r.parts, PartialPayment{Method: method, Amount: amount})
	return nil
}

func (r *Reconciler) RemovePartial(index int) error {
	if !r.split {
		return ErrNotSplitPayment
	}
	if index < 0 || index >= len(r.parts) {
		return ErrLineNotFound
	}
	r.parts = append(r.parts[:index], r.parts[index+1:]...)
	return nil
}

// QuickSplit replaces the partial payments with n equal cash parts that sum
// penny-exact to the final total.
func (r *Reconciler) QuickSplit(n int) error {
	if !r.split {
		return ErrNotSplitPayment
	}
	if n <= 0 {
		return ErrInvalidAmount
	}
	amounts := splitEven(r.FinalTotal(), n)
	parts := make([]PartialPayment, 0, len(amounts))
	for _, amount := range amounts {
		parts = append(parts, PartialPayment{Method: PayCash, Amount: amount})
	}
	r.parts = parts
	return nil
}

// ConfirmFull settles the order with a single method. received only matters
// for cash and is echoed back as change; it is not persisted beyond the
// chosen payment amount.
func (r *Reconciler) ConfirmFull(method PaymentMethod, received float64) (PaymentDetails, float64, error) {
	if r.split {
		return PaymentDetails{}, 0, ErrNotSplitPayment
	}
	finalTotal := r.FinalTotal()
	details := PaymentDetails{Amount: finalTotal}
	switch method {
	case PayCard:
		details.Method = PaymentSingleCard
	default:
		details.Method = PaymentSingleCash
	}

	change := 0.0
	if method == PayCash && received > finalTotal {
		change = received - finalTotal
	}
	return details, change, nil
}

// ConfirmSplit settles the order from the accumulated partial payments.
// Confirmation is blocked while more than Epsilon remains unpaid.
func (r *Reconciler) ConfirmSplit() (PaymentDetails, error) {
	if !r.split {
		return PaymentDetails{}, ErrNotSplitPayment
	}
	if r.Remaining() > Epsilon {
		return PaymentDetails{}, ErrPaymentIncomplete
	}
	return PaymentDetails{Method: PaymentMultiple, Payments: r.Parts()}, nil
}

// HasCash reports whether any component of the payment is cash, which is what
// triggers the drawer signal.
func (d PaymentDetails) HasCash() bool {
	switch d.Method {
	case PaymentSingleCash:
		return true
	case PaymentSingleCard:
		return false
	case PaymentSplit:
		return d.CashAmount > 0
	case PaymentMultiple:
		for _, p := range d.Payments {
			if p.Method == PayCash {
				return true
			}
		}
		return false
	}
	return false
}

// CashCard decomposes the payment into its cash and card buckets for ledger
// recording. total is the finalized order total, used for the single-method
// variants.
func (d PaymentDetails) CashCard(total float64) (cash, card float64) {
	switch d.Method {
	case PaymentSingleCash:
		return total, 0
	case PaymentSingleCard:
		return 0, total
	case PaymentSplit:
		return d.CashAmount, d.CardAmount
	case PaymentMultiple:
		for _, p := range d.Payments {
			switch p.Method {
			case PayCash:
				cash += p.Amount
			case PayCard:
				card += p.Amount
			}
		}
		return cash, card
	}
	return 0, 0
}

// LedgerMethod collapses the payment shape to cash|card for the transaction
// log, matching how receipts summarize mixed payments.
func (d PaymentDetails) LedgerMethod() PaymentMethod {
	if d.Method == PaymentSingleCash {
		return PayCash
	}
	return PayCard
}
