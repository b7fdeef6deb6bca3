package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"taxdesk/internal/domain"
	"taxdesk/internal/logger"
	"taxdesk/internal/port"
	"taxdesk/internal/report"
	"taxdesk/internal/section"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	// maxStatusWriteAttempts bounds compare-and-swap retries on a contended record.
	maxStatusWriteAttempts = 3
)

// UpdateDocumentStatusInput is the DTO for a document review decision.
type UpdateDocumentStatusInput struct {
	DocumentID      string
	Status          domain.DocumentStatus
	RejectionReason string
	ReviewNotes     string
	ReviewerID      uuid.UUID
}

// ReportFile is a rendered export.
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// StorageSettings locates uploaded registration files.
type StorageSettings struct {
	Bucket        string
	PresignExpiry int64
}

// AdminDocumentService is the admin view over registration documents.
type AdminDocumentService interface {
	List(ctx context.Context, filters domain.DocumentFilters) (*domain.DocumentPage, error)
	Get(ctx context.Context, documentID string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, input UpdateDocumentStatusInput) (*domain.Document, error)
	Report(ctx context.Context, filters domain.DocumentFilters, format domain.ReportFormat, detailed bool) (*ReportFile, error)
}

type adminDocumentService struct {
	registry *section.Registry
	store    port.SectionStore
	userRepo port.UserRepository
	storage  port.ObjectStorage
	settings StorageSettings
	notifier Notifier
	log      *logger.Logger
}

// NewAdminDocumentService creates a new AdminDocumentService implementation.
// storage may be nil, in which case documents carry no download URL.
func NewAdminDocumentService(
	registry *section.Registry,
	store port.SectionStore,
	userRepo port.UserRepository,
	storage port.ObjectStorage,
	settings StorageSettings,
	notifier Notifier,
	log *logger.Logger,
) AdminDocumentService {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &adminDocumentService{
		registry: registry,
		store:    store,
		userRepo: userRepo,
		storage:  storage,
		settings: settings,
		notifier: notifier,
		log:      log.With("component", "admin_document_service"),
	}
}

var moduleKinds = map[domain.DocumentModule]domain.SectionKind{
	domain.ModuleNTN:      domain.KindNTNRegistration,
	domain.ModuleBusiness: domain.KindBusinessIncorporation,
	domain.ModuleGST:      domain.KindGSTRegistration,
}

func (s *adminDocumentService) descriptor(module domain.DocumentModule) (domain.SectionDescriptor, error) {
	desc, ok := s.registry.Lookup(moduleKinds[module])
	if !ok {
		return domain.SectionDescriptor{}, fmt.Errorf("section %s is not registered", moduleKinds[module])
	}
	return desc, nil
}

func (s *adminDocumentService) List(ctx context.Context, filters domain.DocumentFilters) (*domain.DocumentPage, error) {
	filters = normalizeDocumentFilters(filters)
	docs, err := s.matching(ctx, filters)
	if err != nil {
		return nil, err
	}

	pg := domain.NewPagination(filters.Page, filters.Limit, len(docs))
	start := min(pg.Offset(), len(docs))
	end := min(start+filters.Limit, len(docs))
	return &domain.DocumentPage{
		Documents:  docs[start:end],
		Pagination: pg,
		Statistics: documentStatistics(docs),
	}, nil
}

func normalizeDocumentFilters(f domain.DocumentFilters) domain.DocumentFilters {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return f
}

// matching returns every document passing filters, newest first.
func (s *adminDocumentService) matching(ctx context.Context, filters domain.DocumentFilters) ([]domain.Document, error) {
	modules := []domain.DocumentModule{domain.ModuleNTN, domain.ModuleBusiness, domain.ModuleGST}
	if filters.Module != "" {
		modules = []domain.DocumentModule{filters.Module}
	}

	var docs []domain.Document
	for _, module := range modules {
		desc, err := s.descriptor(module)
		if err != nil {
			return nil, err
		}
		records, err := s.store.ListByKind(ctx, desc)
		if err != nil {
			return nil, fmt.Errorf("listing %s documents: %w", module, err)
		}
		for i := range records {
			flat, err := flatten(module, &records[i])
			if err != nil {
				s.log.Warn("skipping unreadable registration record", "module", module, "record", records[i].ID, "error", err)
				continue
			}
			docs = append(docs, flat...)
		}
	}

	if err := s.attachUsers(ctx, docs); err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filters.Search))
	docs = lo.Filter(docs, func(d domain.Document, _ int) bool {
		if filters.Status != "" && d.Status != filters.Status {
			return false
		}
		if filters.DateFrom != nil && d.CreatedAt.Before(*filters.DateFrom) {
			return false
		}
		if filters.DateTo != nil && !d.CreatedAt.Before(filters.DateTo.Add(24*time.Hour)) {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(d.UserName), search) &&
			!strings.Contains(strings.ToLower(d.UserEmail), search) &&
			!strings.Contains(strings.ToLower(d.UserCNIC), search) {
			return false
		}
		return true
	})

	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

func (s *adminDocumentService) attachUsers(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	ids := lo.Uniq(lo.Map(docs, func(d domain.Document, _ int) uuid.UUID { return d.UserID }))
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolving document owners: %w", err)
	}
	for i := range docs {
		if u, ok := users[docs[i].UserID]; ok {
			docs[i].UserName = u.FullName
			docs[i].UserEmail = u.Email
			docs[i].UserCNIC = u.CNIC
		}
	}
	return nil
}

func documentStatistics(docs []domain.Document) domain.DocumentStatistics {
	stats := domain.DocumentStatistics{
		Total: len(docs),
		ByStatus: map[domain.DocumentStatus]int{
			domain.DocumentStatusPending:  0,
			domain.DocumentStatusApproved: 0,
			domain.DocumentStatusRejected: 0,
		},
		ByModule: map[domain.DocumentModule]int{
			domain.ModuleNTN:      0,
			domain.ModuleBusiness: 0,
			domain.ModuleGST:      0,
		},
	}
	for _, d := range docs {
		stats.ByStatus[d.Status]++
		stats.ByModule[d.Module]++
	}
	stats.UniqueUsers = len(lo.UniqBy(docs, func(d domain.Document) uuid.UUID { return d.UserID }))
	return stats
}

// flatten projects one registration record into its documents. Slots
// without an uploaded file produce nothing.
func flatten(module domain.DocumentModule, rec *domain.SectionRecord) ([]domain.Document, error) {
	base := func(ref domain.DocumentRef, docType, filePath string, review domain.DocumentReview) domain.Document {
		return domain.Document{
			ID:              ref.String(),
			RecordID:        rec.ID,
			Module:          module,
			DocType:         docType,
			FileName:        path.Base(filePath),
			FilePath:        filePath,
			Status:          review.EffectiveStatus(),
			ApprovedBy:      review.ApprovedBy,
			ApprovedAt:      review.ApprovedAt,
			RejectionReason: review.RejectionReason,
			ReviewNotes:     review.ReviewNotes,
			UserID:          rec.UserID,
			CreatedAt:       rec.CreatedAt,
			UpdatedAt:       rec.UpdatedAt,
		}
	}

	var out []domain.Document
	switch module {
	case domain.ModuleNTN:
		var ntn domain.NTNRegistration
		if err := json.Unmarshal(rec.Data, &ntn); err != nil {
			return nil, err
		}
		if ntn.CertificatePath != "" {
			out = append(out, base(domain.NTNRef(rec.ID), "ntnCertificate", ntn.CertificatePath, ntn.Review))
		}

	case domain.ModuleBusiness:
		var biz domain.BusinessIncorporation
		if err := json.Unmarshal(rec.Data, &biz); err != nil {
			return nil, err
		}
		for _, field := range domain.BusinessDocumentFields {
			p := biz.Documents[field]
			if p == "" {
				continue
			}
			out = append(out, base(domain.BusinessFieldRef(rec.ID, field), field, p, biz.DocumentStatus[field]))
		}

	case domain.ModuleGST:
		var gst domain.GSTRegistration
		if err := json.Unmarshal(rec.Data, &gst); err != nil {
			return nil, err
		}
		for di, doc := range gst.Documents {
			for fi, p := range doc.FilePaths {
				if p == "" {
					continue
				}
				out = append(out, base(domain.GSTSlotRef(rec.ID, di, fi), doc.DocType, p, doc.Review))
			}
		}
	}
	return out, nil
}

func parseRef(documentID string) (domain.DocumentRef, error) {
	ref, err := domain.ParseDocumentRef(documentID)
	if err != nil {
		return ref, domain.NewValidationError(domain.ErrInvalidDocumentID,
			fmt.Sprintf("invalid document id %q", documentID))
	}
	return ref, nil
}

// load fetches the record a reference points into and the document it addresses.
func (s *adminDocumentService) load(ctx context.Context, ref domain.DocumentRef) (*domain.SectionRecord, *domain.Document, error) {
	desc, err := s.descriptor(ref.Module())
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.store.GetByID(ctx, desc, ref.RecordID)
	if err != nil {
		if errors.Is(err, domain.ErrSectionNotFound) {
			return nil, nil, domain.ErrDocumentNotFound
		}
		return nil, nil, err
	}
	docs, err := flatten(ref.Module(), rec)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding %s record %s: %w", ref.Module(), rec.ID, err)
	}
	id := ref.String()
	for i := range docs {
		if docs[i].ID == id {
			return rec, &docs[i], nil
		}
	}
	return nil, nil, domain.ErrDocumentNotFound
}

func (s *adminDocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	ref, err := parseRef(documentID)
	if err != nil {
		return nil, err
	}
	_, doc, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.attachOwner(ctx, doc)

	if s.storage != nil && s.settings.Bucket != "" {
		url, err := s.storage.GetPresignedURL(ctx, s.settings.Bucket, objectKey(doc.FilePath, s.settings.Bucket), s.settings.PresignExpiry)
		if err != nil {
			s.log.Warn("presign failed", "document", doc.ID, "error", err)
		} else {
			doc.DownloadURL = url
		}
	}
	return doc, nil
}

// attachOwner fills owner contact fields; a missing owner leaves them blank.
func (s *adminDocumentService) attachOwner(ctx context.Context, doc *domain.Document) *domain.User {
	user, err := s.userRepo.GetByID(ctx, doc.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn("owner lookup failed", "document", doc.ID, "error", err)
		}
		return nil
	}
	doc.UserName = user.FullName
	doc.UserEmail = user.Email
	doc.UserCNIC = user.CNIC
	return user
}

// objectKey turns a stored file path ("s3://bucket/key", "/key" or "key")
// into an object key within bucket.
func objectKey(filePath, bucket string) string {
	key := strings.TrimPrefix(filePath, "s3://")
	if key != filePath {
		key = strings.TrimPrefix(key, bucket+"/")
	}
	return strings.TrimLeft(key, "/")
}

func (s *adminDocumentService) UpdateStatus(ctx context.Context, input UpdateDocumentStatusInput) (*domain.Document, error) {
	if !domain.ValidDocumentStatuses[input.Status] {
		return nil, domain.NewValidationError(domain.ErrInvalidDocumentStatus,
			fmt.Sprintf("status must be one of: pending, approved, rejected (got %q)", input.Status))
	}
	reason := strings.TrimSpace(input.RejectionReason)
	if input.Status == domain.DocumentStatusRejected && reason == "" {
		return nil, domain.ErrRejectionReasonRequired
	}
	ref, err := parseRef(input.DocumentID)
	if err != nil {
		return nil, err
	}
	desc, err := s.descriptor(ref.Module())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := buildReview(input, reason, now)

	var updated *domain.SectionRecord
	for attempt := 1; ; attempt++ {
		rec, _, err := s.load(ctx, ref)
		if err != nil {
			return nil, err
		}
		data, err := applyReview(ref, rec.Data, review)
		if err != nil {
			return nil, err
		}
		updated, err = s.store.ReplaceData(ctx, desc, rec.ID, rec.Version, data)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= maxStatusWriteAttempts {
			return nil, err
		}
		s.log.Debug("document status write conflicted, retrying", "document", ref.String(), "attempt", attempt)
	}

	docs, err := flatten(ref.Module(), updated)
	if err != nil {
		return nil, err
	}
	doc, ok := lo.Find(docs, func(d domain.Document) bool { return d.ID == ref.String() })
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}

	owner := s.attachOwner(ctx, &doc)
	if owner != nil {
		s.notifier.Notify(Notification{
			Kind: NotifyDocumentStatus,
			Notice: port.StatusNotice{
				ToEmail: owner.Email,
				ToName:  owner.FullName,
				Subject: documentSubject(doc),
				Status:  string(doc.Status),
				Reason:  doc.RejectionReason,
			},
		})
	}

	s.log.Info("document status updated", "document", doc.ID, "status", doc.Status, "reviewer", input.ReviewerID)
	return &doc, nil
}

func buildReview(input UpdateDocumentStatusInput, reason string, now time.Time) domain.DocumentReview {
	reviewer := input.ReviewerID
	review := domain.DocumentReview{
		Status:      input.Status,
		ReviewedBy:  &reviewer,
		ReviewedAt:  &now,
		ReviewNotes: strings.TrimSpace(input.ReviewNotes),
	}
	switch input.Status {
	case domain.DocumentStatusApproved:
		review.ApprovedBy = &reviewer
		review.ApprovedAt = &now
	case domain.DocumentStatusRejected:
		review.RejectionReason = reason
	}
	return review
}

func documentSubject(d domain.Document) string {
	switch d.Module {
	case domain.ModuleNTN:
		return "NTN certificate"
	case domain.ModuleBusiness:
		return "business document (" + d.DocType + ")"
	default:
		return "GST document (" + d.DocType + ")"
	}
}

// applyReview writes review into the slot ref addresses and returns the new
// payload. Every other key of the payload is carried over untouched.
func applyReview(ref domain.DocumentRef, data json.RawMessage, review domain.DocumentReview) (json.RawMessage, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decoding registration payload: %w", err)
	}
	if root == nil {
		root = map[string]json.RawMessage{}
	}
	reviewJSON, err := json.Marshal(review)
	if err != nil {
		return nil, err
	}

	switch ref.Kind {
	case domain.RefNTN:
		root["review"] = reviewJSON

	case domain.RefBusinessField:
		var statuses map[string]json.RawMessage
		if raw, ok := root["documentStatus"]; ok && !isJSONNull(raw) {
			if err := json.Unmarshal(raw, &statuses); err != nil {
				return nil, fmt.Errorf("decoding documentStatus: %w", err)
			}
		}
		if statuses == nil {
			statuses = map[string]json.RawMessage{}
		}
		statuses[ref.Field] = reviewJSON
		if root["documentStatus"], err = json.Marshal(statuses); err != nil {
			return nil, err
		}

	case domain.RefGSTSlot:
		var docs []map[string]json.RawMessage
		if err := json.Unmarshal(root["documents"], &docs); err != nil {
			return nil, fmt.Errorf("decoding documents: %w", err)
		}
		if ref.DocIndex >= len(docs) {
			return nil, domain.ErrDocumentNotFound
		}
		docs[ref.DocIndex]["review"] = reviewJSON
		if root["documents"], err = json.Marshal(docs); err != nil {
			return nil, err
		}

	default:
		return nil, domain.ErrInvalidDocumentID
	}
	return json.Marshal(root)
}

func (s *adminDocumentService) Report(ctx context.Context, filters domain.DocumentFilters, format domain.ReportFormat, detailed bool) (*ReportFile, error) {
	docs, err := s.matching(ctx, filters)
	if err != nil {
		return nil, err
	}
	stats := documentStatistics(docs)

	t := &report.Table{
		Title: "Document Review Report",
		Summary: []report.Field{
			{Label: "Total documents", Value: strconv.Itoa(stats.Total)},
			{Label: "Pending", Value: strconv.Itoa(stats.ByStatus[domain.DocumentStatusPending])},
			{Label: "Approved", Value: strconv.Itoa(stats.ByStatus[domain.DocumentStatusApproved])},
			{Label: "Rejected", Value: strconv.Itoa(stats.ByStatus[domain.DocumentStatusRejected])},
			{Label: "NTN", Value: strconv.Itoa(stats.ByModule[domain.ModuleNTN])},
			{Label: "Business", Value: strconv.Itoa(stats.ByModule[domain.ModuleBusiness])},
			{Label: "GST", Value: strconv.Itoa(stats.ByModule[domain.ModuleGST])},
			{Label: "Unique users", Value: strconv.Itoa(stats.UniqueUsers)},
		},
	}
	if detailed {
		t.Columns = []string{"Document ID", "Module", "Type", "File", "Status", "User", "Email", "CNIC", "Uploaded", "Approved At", "Rejection Reason"}
		rows := docs
		if len(rows) > maxReportRows {
			rows = rows[:maxReportRows]
		}
		t.Rows = lo.Map(rows, func(d domain.Document, _ int) []string {
			return []string{
				d.ID, string(d.Module), d.DocType, d.FileName, string(d.Status),
				d.UserName, d.UserEmail, d.UserCNIC,
				report.FormatTime(&d.CreatedAt), report.FormatTime(d.ApprovedAt), d.RejectionReason,
			}
		})
	}

	content, err := report.Render(format, t)
	if err != nil {
		return nil, err
	}
	return &ReportFile{
		Filename:    report.BuildFilename("document_report", format, t.GeneratedAt),
		ContentType: domain.ReportContentTypes[format],
		Content:     content,
	}, nil
}
