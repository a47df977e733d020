package core

import "github.com/google/uuid"

// CounterParty identifies the receiving side of a document: either a registered
// company by id, or only a name when the receiver had not signed up yet.
type CounterParty interface {
	// DisplayName is the name snapshot recorded at creation.
	DisplayName() string
	counterParty()
}

// CounterByID references a registered company. Name is the snapshot taken at creation.
type CounterByID struct {
	ID   uuid.UUID
	Name string
}

// CounterByName references a company by name only.
type CounterByName struct {
	Name string
}

func (c CounterByID) DisplayName() string   { return c.Name }
func (c CounterByName) DisplayName() string { return c.Name }
func (CounterByID) counterParty()           {}
func (CounterByName) counterParty()         {}

// CounterID returns the counter-party's company id, or nil for name-only parties.
func CounterID(c CounterParty) *uuid.UUID {
	if byID, ok := c.(CounterByID); ok {
		id := byID.ID
		return &id
	}
	return nil
}

// Role is the side an actor must hold on a document for an operation.
type Role int

const (
	RoleIssuer Role = iota
	RoleCounter
)

func (r Role) String() string {
	if r == RoleIssuer {
		return "issuer"
	}
	return "counter-party"
}

// Authorize reports whether company holds role on doc. It returns nil or ErrForbidden.
// Reads and writes use the same rule.
func Authorize(doc *Document, company *Company, role Role) error {
	if doc == nil || company == nil {
		return forbiddenError("authorize", "no document or company")
	}
	switch role {
	case RoleIssuer:
		if doc.IssuerID == company.ID {
			return nil
		}
	case RoleCounter:
		if isCounter(doc.Counter, company) {
			return nil
		}
	}
	return forbiddenError("authorize", "company is not the %s of %s %s", role, doc.Type.Label(), doc.Code)
}

func isCounter(c CounterParty, company *Company) bool {
	switch cp := c.(type) {
	case CounterByID:
		return cp.ID == company.ID
	case CounterByName:
		return sameName(cp.Name, company.Name)
	default:
		return false
	}
}

// Visible reports whether company may see doc at all: as issuer or counter-party.
func Visible(doc *Document, company *Company) bool {
	return Authorize(doc, company, RoleIssuer) == nil || Authorize(doc, company, RoleCounter) == nil
}

// claimCounter binds a name-only counter-party to the company that just acted on it.
// It reports whether the document changed.
func claimCounter(doc *Document, company *Company) bool {
	if _, ok := doc.Counter.(CounterByName); !ok {
		return false
	}
	if !isCounter(doc.Counter, company) {
		return false
	}
	doc.Counter = CounterByID{ID: company.ID, Name: doc.Counter.DisplayName()}
	return true
}

// oppositeParty returns the party of parent that sits across from actor.
func oppositeParty(parent *Document, actor *Company) CounterParty {
	if parent.IssuerID == actor.ID {
		return parent.Counter
	}
	return CounterByID{ID: parent.IssuerID, Name: parent.IssuerName}
}
