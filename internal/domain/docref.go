package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DocumentRefKind tags the variant of a DocumentRef.
type DocumentRefKind int

const (
	// RefNTN addresses the single certificate of an NTN registration: "{id}".
	RefNTN DocumentRefKind = iota + 1
	// RefBusinessField addresses a named file slot of a business incorporation: "{id}_{field}".
	RefBusinessField
	// RefGSTSlot addresses one file of one GST document entry: "{id}_{docIndex}_{fileIndex}".
	RefGSTSlot
)

const refSeparator = "_"

// DocumentRef identifies a registration file that has no identity of its own in storage.
type DocumentRef struct {
	Kind      DocumentRefKind
	RecordID  uuid.UUID
	Field     string
	DocIndex  int
	FileIndex int
}

// NTNRef builds a reference to an NTN certificate.
func NTNRef(recordID uuid.UUID) DocumentRef {
	return DocumentRef{Kind: RefNTN, RecordID: recordID}
}

// BusinessFieldRef builds a reference to a business document slot.
func BusinessFieldRef(recordID uuid.UUID, field string) DocumentRef {
	return DocumentRef{Kind: RefBusinessField, RecordID: recordID, Field: field}
}

// GSTSlotRef builds a reference to one GST file.
func GSTSlotRef(recordID uuid.UUID, docIndex, fileIndex int) DocumentRef {
	return DocumentRef{Kind: RefGSTSlot, RecordID: recordID, DocIndex: docIndex, FileIndex: fileIndex}
}

// Module returns the registration module the reference points into.
func (r DocumentRef) Module() DocumentModule {
	switch r.Kind {
	case RefBusinessField:
		return ModuleBusiness
	case RefGSTSlot:
		return ModuleGST
	default:
		return ModuleNTN
	}
}

// String formats the reference; ParseDocumentRef(r.String()) == r.
func (r DocumentRef) String() string {
	switch r.Kind {
	case RefBusinessField:
		return r.RecordID.String() + refSeparator + r.Field
	case RefGSTSlot:
		return fmt.Sprintf("%s%s%d%s%d", r.RecordID, refSeparator, r.DocIndex, refSeparator, r.FileIndex)
	default:
		return r.RecordID.String()
	}
}

// ParseDocumentRef parses the three supported document id forms.
// The segment count alone selects the variant.
func ParseDocumentRef(s string) (DocumentRef, error) {
	parts := strings.Split(strings.TrimSpace(s), refSeparator)
	recordID, err := uuid.Parse(parts[0])
	if err != nil {
		return DocumentRef{}, ErrInvalidDocumentID
	}

	switch len(parts) {
	case 1:
		return NTNRef(recordID), nil
	case 2:
		if !IsBusinessDocumentField(parts[1]) {
			return DocumentRef{}, ErrInvalidDocumentID
		}
		return BusinessFieldRef(recordID, parts[1]), nil
	case 3:
		docIndex, err := parseIndex(parts[1])
		if err != nil {
			return DocumentRef{}, err
		}
		fileIndex, err := parseIndex(parts[2])
		if err != nil {
			return DocumentRef{}, err
		}
		return GSTSlotRef(recordID, docIndex, fileIndex), nil
	default:
		return DocumentRef{}, ErrInvalidDocumentID
	}
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || strconv.Itoa(n) != s {
		return 0, ErrInvalidDocumentID
	}
	return n, nil
}
