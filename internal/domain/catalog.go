package domain

// ReferenceType identifies the kind of external business object a task
// is performed against.
type ReferenceType string

// Possible reference type values.
const (
	ReferenceTypeOrder  ReferenceType = "order"
	ReferenceTypeEntity ReferenceType = "entity"
)

// IsValid reports whether the reference type is a known value.
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypeOrder, ReferenceTypeEntity:
		return true
	default:
		return false
	}
}

// TaskType identifies the kind of work a task represents. Which task
// types apply to a reference depends on its reference type; see Catalog.
type TaskType string

// Possible task type values.
const (
	TaskTypeCreateInvoice               TaskType = "create_invoice"
	TaskTypeArrangePickup               TaskType = "arrange_pickup"
	TaskTypeCollectPayment              TaskType = "collect_payment"
	TaskTypeAssignCustomerToSalesPerson TaskType = "assign_customer_to_sales_person"
)

// IsValid reports whether the task type is a known value.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeCreateInvoice, TaskTypeArrangePickup,
		TaskTypeCollectPayment, TaskTypeAssignCustomerToSalesPerson:
		return true
	default:
		return false
	}
}

// Catalog maps a reference type to the ordered set of task types
// applicable to it. It is a pure lookup table with no state, injected
// into the lifecycle engine so it can be replaced in tests.
type Catalog struct {
	byReferenceType map[ReferenceType][]TaskType
}

// NewCatalog builds a catalog from an explicit mapping. The slices are
// copied so later mutation of the input cannot change lookup results.
func NewCatalog(mapping map[ReferenceType][]TaskType) *Catalog {
	byRef := make(map[ReferenceType][]TaskType, len(mapping))
	for refType, taskTypes := range mapping {
		types := make([]TaskType, len(taskTypes))
		copy(types, taskTypes)
		byRef[refType] = types
	}
	return &Catalog{byReferenceType: byRef}
}

// DefaultCatalog returns the production mapping of reference types to
// their applicable task types.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[ReferenceType][]TaskType{
		ReferenceTypeOrder: {
			TaskTypeCreateInvoice,
			TaskTypeArrangePickup,
			TaskTypeCollectPayment,
		},
		ReferenceTypeEntity: {
			TaskTypeAssignCustomerToSalesPerson,
		},
	})
}

// ApplicableTaskTypes returns the ordered task types applicable to the
// given reference type. The returned slice is a copy and safe to mutate.
// An unknown reference type yields an empty slice.
func (c *Catalog) ApplicableTaskTypes(refType ReferenceType) []TaskType {
	taskTypes, ok := c.byReferenceType[refType]
	if !ok {
		return nil
	}

	out := make([]TaskType, len(taskTypes))
	copy(out, taskTypes)
	return out
}
