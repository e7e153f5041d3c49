package enum

// ── Group A: Values owned by the remote order API ──

const (
	OrderItemStatusActive   = "active"
	OrderItemStatusCanceled = "canceled"
)

const (
	UnitPiece = "piece"
	UnitKg    = "kg"
	UnitGr    = "gr"
	UnitLiter = "liter"
)

// ── Group B: Values owned by this service ──

const (
	DocumentKitchen  = "kitchen"
	DocumentCustomer = "customer-check"
)

const (
	PrintStatusNoItems        = "no_items"
	PrintStatusNothingToPrint = "nothing_to_print"
	PrintStatusPrinted        = "printed"
	PrintStatusPartial        = "partial"
)

const (
	EventPrintDispatched = "print.dispatched"
	EventPrintFailed     = "print.failed"
	EventPrintReconciled = "print.reconciled"
)

// ── Group C: Staff roles accepted on the print endpoints ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleCashier = "CASHIER"
	UserRoleWaiter  = "WAITER"
)
