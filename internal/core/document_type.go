package core

import "fmt"

// DocumentType identifies one of the eight trade documents.
type DocumentType string

const (
	DocRFQ           DocumentType = "RFQ"
	DocQuotation     DocumentType = "QUOTATION"
	DocContract      DocumentType = "CONTRACT"
	DocPurchaseOrder DocumentType = "PURCHASE_ORDER"
	DocSalesOrder    DocumentType = "SALES_ORDER"
	DocDeliveryNote  DocumentType = "DELIVERY_NOTE"
	DocPackingList   DocumentType = "PACKING_LIST"
	DocInvoice       DocumentType = "INVOICE"
)

// AllDocumentTypes lists every type in chain order.
var AllDocumentTypes = []DocumentType{
	DocRFQ, DocQuotation, DocContract, DocPurchaseOrder,
	DocSalesOrder, DocDeliveryNote, DocPackingList, DocInvoice,
}

type typeInfo struct {
	slug   string
	label  string
	prefix string
	issuer CompanyKind
	// parents in precedence order: the first present one supplies the counter-party.
	parents []DocumentType
}

var typeInfos = map[DocumentType]typeInfo{
	DocRFQ:           {slug: "rfq", label: "RFQ", prefix: "RFQ", issuer: CompanyKindBuyer},
	DocQuotation:     {slug: "quotation", label: "quotation", prefix: "QUO", issuer: CompanyKindSeller, parents: []DocumentType{DocRFQ}},
	DocContract:      {slug: "contract", label: "contract", prefix: "CON", issuer: CompanyKindSeller},
	DocPurchaseOrder: {slug: "purchase-order", label: "purchase order", prefix: "PO", issuer: CompanyKindBuyer, parents: []DocumentType{DocContract, DocQuotation}},
	DocSalesOrder:    {slug: "sales-order", label: "sales order", prefix: "SO", issuer: CompanyKindSeller, parents: []DocumentType{DocPurchaseOrder}},
	DocDeliveryNote:  {slug: "delivery-note", label: "delivery note", prefix: "DN", issuer: CompanyKindSeller, parents: []DocumentType{DocSalesOrder, DocPurchaseOrder}},
	DocPackingList:   {slug: "packing-list", label: "packing list", prefix: "PL", issuer: CompanyKindSeller, parents: []DocumentType{DocDeliveryNote, DocSalesOrder, DocPurchaseOrder}},
	DocInvoice:       {slug: "invoice", label: "invoice", prefix: "INV", issuer: CompanyKindSeller, parents: []DocumentType{DocPurchaseOrder}},
}

func (t DocumentType) IsValid() bool {
	_, ok := typeInfos[t]
	return ok
}

// Slug is the URL path segment for the type.
func (t DocumentType) Slug() string { return typeInfos[t].slug }

// Label is the human-readable name used in messages.
func (t DocumentType) Label() string {
	if info, ok := typeInfos[t]; ok {
		return info.label
	}
	return string(t)
}

// Prefix is the code prefix, e.g. "PO" in "ABC PO-001".
func (t DocumentType) Prefix() string { return typeInfos[t].prefix }

// IssuerKind is the company kind allowed to create documents of this type.
func (t DocumentType) IssuerKind() CompanyKind { return typeInfos[t].issuer }

// ParentTypes returns the allowed parent types in counter-party precedence order.
func (t DocumentType) ParentTypes() []DocumentType { return typeInfos[t].parents }

// ParseDocumentType accepts either the enum value or the URL slug.
func ParseDocumentType(s string) (DocumentType, error) {
	for t, info := range typeInfos {
		if s == string(t) || s == info.slug {
			return t, nil
		}
	}
	return "", &Error{Op: "parse document type", Kind: ErrValidation, Field: "type", Detail: fmt.Sprintf("unknown document type %q", s)}
}
