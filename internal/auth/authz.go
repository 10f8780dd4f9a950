package auth

import (
	"errors"

	"github.com/google/uuid"
)

var ErrForbidden = errors.New("actor is not allowed to perform this operation")

// Operation names an action a caller can attempt. Services check the policy
// table once per operation instead of branching on role strings inline.
type Operation string

const (
	OpProposeReservation  Operation = "reservation.propose"
	OpViewSlots           Operation = "reservation.slots"
	OpConfirmReservation  Operation = "reservation.confirm"
	OpCompleteReservation Operation = "reservation.complete"
	OpCancelReservation   Operation = "reservation.cancel"
	OpAppendRecord        Operation = "record.append"
	OpReadRecords         Operation = "record.read"
	OpAmendRecord         Operation = "record.amend"
	OpManagePatients      Operation = "account.manage_patients"
	OpListUsers           Operation = "account.list_users"
	OpCreateInvoice       Operation = "invoice.create"
	OpListInvoices        Operation = "invoice.list"
	OpReadInvoice         Operation = "invoice.read"
	OpSettleInvoice       Operation = "invoice.settle"
	OpDeleteInvoice       Operation = "invoice.delete"
	OpListMedicines       Operation = "medicine.list"
	OpManageMedicines     Operation = "medicine.manage"
)

// Scope says on whose behalf a role may invoke an operation.
type Scope int

const (
	ScopeNone Scope = iota // role may not invoke the operation at all
	ScopeSelf              // role may invoke it only for its own records
	ScopeAny               // role may invoke it for anyone
)

// policy is the authorization matrix. A role absent from a row has ScopeNone.
var policy = map[Operation]map[Role]Scope{
	OpProposeReservation:  {RolePatient: ScopeSelf, RoleAdmin: ScopeAny},
	OpViewSlots:           {RolePatient: ScopeAny, RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpConfirmReservation:  {RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpCompleteReservation: {RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpCancelReservation:   {RolePatient: ScopeSelf, RoleAdmin: ScopeAny},
	OpAppendRecord:        {RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpReadRecords:         {RolePatient: ScopeSelf, RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpAmendRecord:         {RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpManagePatients:      {RoleAdmin: ScopeAny},
	OpListUsers:           {RolePatient: ScopeSelf, RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpCreateInvoice:       {RoleAdmin: ScopeAny},
	OpListInvoices:        {RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpReadInvoice:         {RolePatient: ScopeSelf, RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpSettleInvoice:       {RoleAdmin: ScopeAny},
	OpDeleteInvoice:       {RoleAdmin: ScopeAny},
	OpListMedicines:       {RoleDoctor: ScopeAny, RoleAdmin: ScopeAny},
	OpManageMedicines:     {RoleAdmin: ScopeAny},
}

// Authorize checks actor against the policy table. subject is the user the
// operation acts on; pass uuid.Nil when the operation has no subject.
func Authorize(actor Actor, op Operation, subject uuid.UUID) error {
	row, ok := policy[op]
	if !ok {
		return ErrForbidden
	}

	switch row[actor.Role] {
	case ScopeAny:
		return nil
	case ScopeSelf:
		if subject != uuid.Nil && subject == actor.ID {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
