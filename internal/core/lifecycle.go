package core

import "fmt"

// Status is a document status. Each document type has its own vocabulary; a
// label shared by two types is two different states.
type Status string

const (
	RFQDraft    Status = "DRAFT"
	RFQPending  Status = "PENDING"
	RFQApproved Status = "APPROVED"
	RFQRejected Status = "REJECTED"
)

const (
	QuotationDraft    Status = "DRAFT"
	QuotationSent     Status = "SENT"
	QuotationAccepted Status = "ACCEPTED"
	QuotationRejected Status = "REJECTED"
)

const (
	ContractDraft          Status = "DRAFT"
	ContractPending        Status = "PENDING"
	ContractPendingChanges Status = "PENDING_CHANGES"
	ContractApproved       Status = "APPROVED"
	ContractRejected       Status = "REJECTED"
)

const (
	PODraft     Status = "DRAFT"
	POPending   Status = "PENDING"
	POApproved  Status = "APPROVED"
	PORejected  Status = "REJECTED"
	POCompleted Status = "COMPLETED"
)

const (
	SODraft      Status = "DRAFT"
	SOProcessing Status = "PROCESSING"
	SOShipped    Status = "SHIPPED"
	SODelivered  Status = "DELIVERED"
	SOCancelled  Status = "CANCELLED"
)

const (
	DNPending      Status = "PENDING"
	DNAcknowledged Status = "ACKNOWLEDGED"
	DNDisputed     Status = "DISPUTED"
)

const (
	PLPending      Status = "PENDING"
	PLAcknowledged Status = "ACKNOWLEDGED"
	PLRejected     Status = "REJECTED"
)

const (
	InvoiceDraft   Status = "DRAFT"
	InvoicePending Status = "PENDING"
	InvoicePaid    Status = "PAID"
	InvoiceOverdue Status = "OVERDUE"
)

// Action is a named status-changing operation. The set accepted for a document
// type is closed: ParseAction rejects anything outside its machine.
type Action string

const (
	ActionApprove        Action = "approve"
	ActionDecline        Action = "decline"
	ActionAccept         Action = "accept"
	ActionReject         Action = "reject"
	ActionSuggestChanges Action = "suggest_changes"
	ActionSubmit         Action = "submit"
	ActionProcess        Action = "process"
	ActionShip           Action = "ship"
	ActionDeliver        Action = "deliver"
	ActionCancel         Action = "cancel"
	ActionAcknowledge    Action = "acknowledge"
	ActionDispute        Action = "dispute"
	ActionPay            Action = "pay"
	ActionPartialPay     Action = "partial_pay"
)

// Transition describes one action of a machine. An empty From means the action
// is legal from any non-terminal status. An empty To means the target is decided
// by the invoice ledger.
type Transition struct {
	Role Role
	From []Status
	To   Status
}

type machine struct {
	initial  Status
	draft    Status
	reply    Status
	statuses []Status
	terminal []Status
	// refused are the terminal statuses that end a chain: no document may be
	// created from them.
	refused  []Status
	actions  map[Action]Transition
	synonyms map[string]Action
}

var machines = map[DocumentType]machine{
	DocRFQ: {
		initial:  RFQPending,
		draft:    RFQDraft,
		statuses: []Status{RFQDraft, RFQPending, RFQApproved, RFQRejected},
		terminal: []Status{RFQApproved, RFQRejected},
		refused:  []Status{RFQRejected},
		actions: map[Action]Transition{
			ActionApprove: {Role: RoleCounter, From: []Status{RFQPending}, To: RFQApproved},
			ActionDecline: {Role: RoleCounter, From: []Status{RFQPending}, To: RFQRejected},
			ActionSubmit:  {Role: RoleIssuer, From: []Status{RFQDraft}, To: RFQPending},
		},
		synonyms: map[string]Action{"accept": ActionApprove},
	},
	DocQuotation: {
		initial:  QuotationDraft,
		reply:    QuotationSent,
		statuses: []Status{QuotationDraft, QuotationSent, QuotationAccepted, QuotationRejected},
		terminal: []Status{QuotationAccepted, QuotationRejected},
		refused:  []Status{QuotationRejected},
		actions: map[Action]Transition{
			ActionAccept: {Role: RoleCounter, From: []Status{QuotationSent}, To: QuotationAccepted},
			ActionReject: {Role: RoleCounter, From: []Status{QuotationSent}, To: QuotationRejected},
			ActionSubmit: {Role: RoleIssuer, From: []Status{QuotationDraft}, To: QuotationSent},
		},
	},
	DocContract: {
		initial:  ContractPending,
		draft:    ContractDraft,
		statuses: []Status{ContractDraft, ContractPending, ContractPendingChanges, ContractApproved, ContractRejected},
		terminal: []Status{ContractApproved, ContractRejected},
		refused:  []Status{ContractRejected},
		actions: map[Action]Transition{
			ActionAccept:         {Role: RoleCounter, From: []Status{ContractPending}, To: ContractApproved},
			ActionReject:         {Role: RoleCounter, From: []Status{ContractPending}, To: ContractRejected},
			ActionSuggestChanges: {Role: RoleCounter, From: []Status{ContractPending}, To: ContractPendingChanges},
			ActionSubmit:         {Role: RoleIssuer, From: []Status{ContractDraft, ContractPendingChanges}, To: ContractPending},
		},
	},
	DocPurchaseOrder: {
		initial:  POPending,
		draft:    PODraft,
		statuses: []Status{PODraft, POPending, POApproved, PORejected, POCompleted},
		terminal: []Status{POApproved, PORejected, POCompleted},
		refused:  []Status{PORejected},
		actions: map[Action]Transition{
			ActionAccept: {Role: RoleCounter, From: []Status{POPending}, To: POApproved},
			ActionReject: {Role: RoleCounter, From: []Status{POPending}, To: PORejected},
			ActionSubmit: {Role: RoleIssuer, From: []Status{PODraft}, To: POPending},
		},
	},
	DocSalesOrder: {
		initial:  SODraft,
		statuses: []Status{SODraft, SOProcessing, SOShipped, SODelivered, SOCancelled},
		terminal: []Status{SODelivered, SOCancelled},
		refused:  []Status{SOCancelled},
		actions: map[Action]Transition{
			ActionProcess: {Role: RoleIssuer, From: []Status{SODraft}, To: SOProcessing},
			ActionShip:    {Role: RoleIssuer, From: []Status{SOProcessing}, To: SOShipped},
			ActionDeliver: {Role: RoleIssuer, From: []Status{SOShipped}, To: SODelivered},
			ActionCancel:  {Role: RoleIssuer, From: []Status{SODraft, SOProcessing}, To: SOCancelled},
		},
	},
	DocDeliveryNote: {
		initial:  DNPending,
		statuses: []Status{DNPending, DNAcknowledged, DNDisputed},
		terminal: []Status{DNAcknowledged, DNDisputed},
		refused:  []Status{DNDisputed},
		actions: map[Action]Transition{
			ActionAcknowledge: {Role: RoleCounter, To: DNAcknowledged},
			ActionDispute:     {Role: RoleCounter, To: DNDisputed},
		},
	},
	DocPackingList: {
		initial:  PLPending,
		statuses: []Status{PLPending, PLAcknowledged, PLRejected},
		terminal: []Status{PLAcknowledged, PLRejected},
		refused:  []Status{PLRejected},
		actions: map[Action]Transition{
			ActionAcknowledge: {Role: RoleCounter, To: PLAcknowledged},
			ActionReject:      {Role: RoleCounter, To: PLRejected},
		},
	},
	DocInvoice: {
		initial:  InvoiceDraft,
		statuses: []Status{InvoiceDraft, InvoicePending, InvoicePaid, InvoiceOverdue},
		terminal: []Status{InvoicePaid},
		actions: map[Action]Transition{
			ActionAccept:     {Role: RoleCounter, From: []Status{InvoiceDraft}, To: InvoicePending},
			ActionReject:     {Role: RoleCounter, From: []Status{InvoiceDraft, InvoicePending}, To: InvoiceDraft},
			ActionPay:        {Role: RoleCounter, From: []Status{InvoicePending, InvoiceOverdue}, To: InvoicePaid},
			ActionPartialPay: {Role: RoleCounter, From: []Status{InvoicePending, InvoiceOverdue}},
		},
	},
}

// InitialStatus returns the creation status for docType. draft asks for the
// type's draft state where one exists; reply is set when the document answers a
// parent (a Quotation created from an RFQ starts SENT).
func InitialStatus(docType DocumentType, draft, reply bool) Status {
	m := machines[docType]
	switch {
	case draft && m.draft != "":
		return m.draft
	case reply && m.reply != "":
		return m.reply
	}
	return m.initial
}

// ValidStatus reports whether s belongs to docType's vocabulary.
func ValidStatus(docType DocumentType, s Status) bool {
	return containsStatus(machines[docType].statuses, s)
}

// Statuses lists docType's vocabulary.
func Statuses(docType DocumentType) []Status {
	return append([]Status(nil), machines[docType].statuses...)
}

// IsTerminal reports whether s accepts no further actions for docType.
func IsTerminal(docType DocumentType, s Status) bool {
	return containsStatus(machines[docType].terminal, s)
}

// IsRefused reports whether s is a final refusal (rejected, declined, cancelled
// or disputed) for docType.
func IsRefused(docType DocumentType, s Status) bool {
	return containsStatus(machines[docType].refused, s)
}

// ActionRole returns the party allowed to run action on docType, regardless of
// the document's current status.
func ActionRole(docType DocumentType, action Action) (Role, bool) {
	tr, ok := machines[docType].actions[action]
	return tr.Role, ok
}

// ParseAction turns an action tag into docType's closed action set.
func ParseAction(docType DocumentType, tag string) (Action, error) {
	m, ok := machines[docType]
	if !ok {
		return "", validationError("parse action", "type", "unknown document type %q", docType)
	}
	if a, ok := m.synonyms[tag]; ok {
		return a, nil
	}
	if _, ok := m.actions[Action(tag)]; ok {
		return Action(tag), nil
	}
	return "", validationError("parse action", "action", "%q is not an action on a %s", tag, docType.Label())
}

// Actions lists the actions docType accepts.
func Actions(docType DocumentType) []Action {
	m := machines[docType]
	out := make([]Action, 0, len(m.actions))
	for _, a := range []Action{
		ActionApprove, ActionDecline, ActionAccept, ActionReject, ActionSuggestChanges, ActionSubmit,
		ActionProcess, ActionShip, ActionDeliver, ActionCancel, ActionAcknowledge, ActionDispute,
		ActionPay, ActionPartialPay,
	} {
		if _, ok := m.actions[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Plan looks up action for doc's current status without mutating anything.
func Plan(doc *Document, action Action) (Transition, error) {
	m := machines[doc.Type]
	tr, ok := m.actions[action]
	if !ok {
		return Transition{}, validationError("apply action", "action", "%q is not an action on a %s", action, doc.Type.Label())
	}
	if IsTerminal(doc.Type, doc.Status) {
		return Transition{}, transitionError("apply action",
			"%s %s cannot be %s: status %s is final", doc.Type.Label(), doc.Code, pastTense(action), doc.Status)
	}
	if len(tr.From) > 0 && !containsStatus(tr.From, doc.Status) {
		return Transition{}, transitionError("apply action",
			"%s %s cannot be %s: status is %s (must be %s)", doc.Type.Label(), doc.Code, pastTense(action), doc.Status, joinStatuses(tr.From))
	}
	return tr, nil
}

func pastTense(a Action) string {
	switch a {
	case ActionSubmit:
		return "submitted"
	case ActionShip:
		return "shipped"
	case ActionPay, ActionPartialPay:
		return "paid"
	case ActionSuggestChanges:
		return "sent back for changes"
	case ActionCancel:
		return "cancelled"
	case ActionProcess:
		return "processed"
	}
	s := string(a)
	if s[len(s)-1] == 'e' {
		return s + "d"
	}
	return s + "ed"
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func joinStatuses(list []Status) string {
	out := ""
	for i, s := range list {
		if i > 0 {
			out += " or "
		}
		out += string(s)
	}
	return out
}

// DeletePolicy maps each type to the statuses in which its documents may be deleted.
type DeletePolicy map[DocumentType][]Status

// DefaultDeletePolicy allows deletion only before the counter-party has acted.
func DefaultDeletePolicy() DeletePolicy {
	return DeletePolicy{
		DocRFQ:           {RFQDraft, RFQPending},
		DocQuotation:     {QuotationDraft, QuotationSent},
		DocContract:      {ContractDraft, ContractPending},
		DocPurchaseOrder: {PODraft, POPending},
		DocSalesOrder:    {SODraft},
		DocDeliveryNote:  {DNPending},
		DocPackingList:   {PLPending},
		DocInvoice:       {InvoiceDraft},
	}
}

// Allows reports whether a document of docType in status s may be deleted.
func (p DeletePolicy) Allows(docType DocumentType, s Status) bool {
	return containsStatus(p[docType], s)
}

// Validate rejects statuses that are not in the type's vocabulary.
func (p DeletePolicy) Validate() error {
	for t, list := range p {
		if !t.IsValid() {
			return fmt.Errorf("delete policy: unknown document type %q", t)
		}
		for _, s := range list {
			if !ValidStatus(t, s) {
				return fmt.Errorf("delete policy: %s is not a %s status", s, t.Label())
			}
		}
	}
	return nil
}
