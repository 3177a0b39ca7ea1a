package media

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"campus-server/services/media-api/internal/domain"
	"campus-server/services/media-api/internal/domain/query"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

type fakeRepo struct {
	objects     []*MediaObject
	failCreates int
	nextID      int
}

func (r *fakeRepo) FindInContext(ctx context.Context, scope Context, mediaID string) (*MediaObject, error) {
	for _, obj := range r.objects {
		if obj.Context == scope && obj.MediaID == mediaID {
			return obj, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) Create(ctx context.Context, obj *MediaObject) error {
	if r.failCreates > 0 {
		r.failCreates--
		return ErrDuplicateMediaObject
	}
	r.nextID++
	obj.ID = fmt.Sprintf("mo-%d", r.nextID)
	obj.CreatedAt = time.Now().UTC()
	r.objects = append(r.objects, obj)
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, obj *MediaObject) error {
	obj.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeRepo) FindByMediaID(ctx context.Context, mediaID string) ([]*MediaObject, error) {
	var out []*MediaObject
	for _, obj := range r.objects {
		if obj.MediaID == mediaID {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindVisible(ctx context.Context, filter VisibilityFilter, s query.Sort, page query.Pagination) ([]*MediaObject, error) {
	var out []*MediaObject
	for _, obj := range r.objects {
		if obj.Deleted() {
			continue
		}
		if filter.OwnerContext != nil && obj.Context != *filter.OwnerContext {
			continue
		}
		if filter.Scope != nil && obj.Context != *filter.Scope {
			continue
		}
		if filter.SearchTerm != "" && !strings.Contains(strings.ToLower(obj.EffectiveTitle()), strings.ToLower(filter.SearchTerm)) {
			continue
		}
		out = append(out, obj)
	}
	if s.Field == query.SortTitle {
		sort.SliceStable(out, func(i, j int) bool {
			if s.Order == query.OrderDesc {
				return out[i].EffectiveTitle() > out[j].EffectiveTitle()
			}
			return out[i].EffectiveTitle() < out[j].EffectiveTitle()
		})
	}
	start := page.Offset()
	if start > len(out) {
		return []*MediaObject{}, nil
	}
	end := start + page.Limit()
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

type fakeAttachments struct {
	attachments map[string]*Attachment
}

func (r *fakeAttachments) GetByID(ctx context.Context, id string) (*Attachment, error) {
	return r.attachments[id], nil
}

type fakeTracks struct {
	byAttachment map[string][]*MediaTrack
}

func (r *fakeTracks) ListByAttachment(ctx context.Context, attachmentID string) ([]*MediaTrack, error) {
	return r.byAttachment[attachmentID], nil
}

type fakeScopes struct {
	courses map[string]*Course
	groups  map[string]*Group
}

func (r *fakeScopes) GetCourse(ctx context.Context, id string) (*Course, error) {
	return r.courses[id], nil
}

func (r *fakeScopes) GetGroup(ctx context.Context, id string) (*Group, error) {
	return r.groups[id], nil
}

// allowPolicy grants rights by key "kind:right"; absent keys are denied.
type allowPolicy struct {
	grants map[string]bool
}

func (p *allowPolicy) CanAttachment(ctx context.Context, principal domain.Principal, att *Attachment, right Right) bool {
	return p.grants["attachment:"+string(right)]
}

func (p *allowPolicy) CanMediaObject(ctx context.Context, principal domain.Principal, obj *MediaObject, right Right) bool {
	return p.grants["media_object:"+string(right)]
}

func (p *allowPolicy) CanContext(ctx context.Context, principal domain.Principal, scope Context, right Right) bool {
	return p.grants["context:"+string(right)]
}

func allowAll() *allowPolicy {
	return &allowPolicy{grants: map[string]bool{
		"attachment:read":          true,
		"attachment:update":        true,
		"media_object:read":        true,
		"media_object:update":      true,
		"media_object:add_captions": true,
		"context:read":             true,
	}}
}

type serviceFixture struct {
	repo        *fakeRepo
	attachments *fakeAttachments
	tracks      *fakeTracks
	scopes      *fakeScopes
	policy      *allowPolicy
	provider    *stubProvider
	service     *Service
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		repo:        &fakeRepo{},
		attachments: &fakeAttachments{attachments: map[string]*Attachment{}},
		tracks:      &fakeTracks{byAttachment: map[string][]*MediaTrack{}},
		scopes:      &fakeScopes{courses: map[string]*Course{}, groups: map[string]*Group{}},
		policy:      allowAll(),
		provider:    &stubProvider{},
	}
	resolver := NewSourceResolver(f.provider, "http://campus.test", false)
	f.service = NewService(f.repo, f.attachments, f.tracks, f.scopes, f.policy, f.provider, resolver, zerolog.Nop())
	return f
}

func TestFindOrCreateIdempotent(t *testing.T) {
	f := newFixture()
	scope := UserContext("u-1")

	first, err := f.service.FindOrCreate(context.Background(), scope, "m-1", CreateAttrs{Title: "one"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.service.FindOrCreate(context.Background(), scope, "m-1", CreateAttrs{Title: "two"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same row, got %q and %q", first.ID, second.ID)
	}
	if second.Title != "two" {
		t.Fatalf("title not updated, got %q", second.Title)
	}
	if len(f.repo.objects) != 1 {
		t.Fatalf("expected one stored row, got %d", len(f.repo.objects))
	}
}

func TestFindOrCreateClampsTitles(t *testing.T) {
	f := newFixture()
	long := strings.Repeat("t", 400)

	obj, err := f.service.FindOrCreate(context.Background(), UserContext("u-1"), "m-1", CreateAttrs{
		Title:            long,
		UserEnteredTitle: long,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obj.Title) != MaxTitleLength || len(obj.UserEnteredTitle) != MaxTitleLength {
		t.Fatalf("titles not clamped: %d, %d", len(obj.Title), len(obj.UserEnteredTitle))
	}
}

func TestFindOrCreateSurvivesDuplicateRace(t *testing.T) {
	f := newFixture()
	scope := UserContext("u-1")
	// a concurrent writer wins the insert between our read and create
	winner := &MediaObject{ID: "mo-race", MediaID: "m-1", Context: scope, WorkflowState: WorkflowActive}
	f.repo.failCreates = 1

	done := make(chan struct{})
	go func() {
		f.repo.objects = append(f.repo.objects, winner)
		close(done)
	}()
	<-done

	obj, err := f.service.FindOrCreate(context.Background(), scope, "m-1", CreateAttrs{Title: "late"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.ID != "mo-race" {
		t.Fatalf("expected the winner's row, got %q", obj.ID)
	}
	if obj.Title != "late" {
		t.Fatalf("loser's attributes not applied, title = %q", obj.Title)
	}
}

func TestFindOrCreateRequiresMediaID(t *testing.T) {
	f := newFixture()
	_, err := f.service.FindOrCreate(context.Background(), UserContext("u-1"), "", CreateAttrs{})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListUnknownCourseIsNotFound(t *testing.T) {
	f := newFixture()
	principal := domain.Principal{ID: "u-1", AuthMethod: domain.AuthMethodJWT}

	_, err := f.service.List(context.Background(), principal, ListOptions{CourseID: "nope", Page: query.Pagination{PerPage: 25, Page: 1}})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListCourseScopeDeniedWithoutReadRight(t *testing.T) {
	f := newFixture()
	f.scopes.courses["c-1"] = &Course{ID: "c-1"}
	f.policy.grants["context:read"] = false
	principal := domain.Principal{ID: "u-1", AuthMethod: domain.AuthMethodJWT}

	_, err := f.service.List(context.Background(), principal, ListOptions{CourseID: "c-1", Page: query.Pagination{PerPage: 25, Page: 1}})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestListUnscopedUsesOwnerContext(t *testing.T) {
	f := newFixture()
	f.repo.objects = []*MediaObject{
		{ID: "mo-1", MediaID: "m-1", Context: UserContext("u-1"), Title: "mine", WorkflowState: WorkflowActive},
		{ID: "mo-2", MediaID: "m-2", Context: UserContext("u-2"), Title: "theirs", WorkflowState: WorkflowActive},
		{ID: "mo-3", MediaID: "m-3", Context: UserContext("u-1"), Title: "gone", WorkflowState: WorkflowDeleted},
	}
	principal := domain.Principal{ID: "u-1", AuthMethod: domain.AuthMethodJWT}

	got, err := f.service.List(context.Background(), principal, ListOptions{Page: query.Pagination{PerPage: 25, Page: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "mo-1" {
		t.Fatalf("visibility wrong: %+v", got)
	}
}

func TestListAnonymousUnscopedUnauthorized(t *testing.T) {
	f := newFixture()
	_, err := f.service.List(context.Background(), domain.Principal{AuthMethod: domain.AuthMethodAnonymous}, ListOptions{Page: query.Pagination{PerPage: 25, Page: 1}})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestShowRegistersKnownProviderAsset(t *testing.T) {
	f := newFixture()
	f.provider.exists = true

	obj, err := f.service.Show(context.Background(), "m-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.MediaID != "m-new" {
		t.Fatalf("registered wrong id %q", obj.MediaID)
	}
	if !obj.Context.IsZero() {
		t.Fatalf("first-playback registration must be unowned, got %+v", obj.Context)
	}
	if len(f.repo.objects) != 1 {
		t.Fatalf("row not persisted")
	}
}

func TestShowUnknownAssetNotFound(t *testing.T) {
	f := newFixture()
	f.provider.exists = false

	_, err := f.service.Show(context.Background(), "m-missing")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestShowReturnsDeletedObject(t *testing.T) {
	f := newFixture()
	f.repo.objects = []*MediaObject{
		{ID: "mo-1", MediaID: "m-1", WorkflowState: WorkflowDeleted},
	}

	obj, err := f.service.Show(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.ID != "mo-1" {
		t.Fatalf("got %+v", obj)
	}
}

func TestResolveAttachmentFollowsReplacementChain(t *testing.T) {
	f := newFixture()
	f.attachments.attachments["a-1"] = &Attachment{ID: "a-1", FileState: FileStateDeleted, ReplacementAttachmentID: "a-2"}
	f.attachments.attachments["a-2"] = &Attachment{ID: "a-2", FileState: FileStateDeleted, ReplacementAttachmentID: "a-3"}
	f.attachments.attachments["a-3"] = &Attachment{ID: "a-3", FileState: FileStateAvailable, MediaEntryID: "m-1"}

	att, err := f.service.ResolveAttachment(context.Background(), domain.Principal{ID: "u-1"}, "a-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if att.ID != "a-3" {
		t.Fatalf("resolved %q, want the replacement tail", att.ID)
	}
}

func TestResolveAttachmentCyclicChainNotFound(t *testing.T) {
	f := newFixture()
	// two deleted attachments replaced by each other
	f.attachments.attachments["a-1"] = &Attachment{ID: "a-1", FileState: FileStateDeleted, ReplacementAttachmentID: "a-2"}
	f.attachments.attachments["a-2"] = &Attachment{ID: "a-2", FileState: FileStateDeleted, ReplacementAttachmentID: "a-1"}

	_, err := f.service.ResolveAttachment(context.Background(), domain.Principal{ID: "u-1"}, "a-1")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveAttachmentLockedUnauthorized(t *testing.T) {
	f := newFixture()
	f.attachments.attachments["a-1"] = &Attachment{ID: "a-1", Locked: true, MediaEntryID: "m-1"}
	f.policy.grants["attachment:update"] = false

	_, err := f.service.ResolveAttachment(context.Background(), domain.Principal{ID: "u-1"}, "a-1")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestShowByAttachmentDeniedWithoutRead(t *testing.T) {
	f := newFixture()
	f.attachments.attachments["a-1"] = &Attachment{ID: "a-1", MediaEntryID: "m-1"}
	f.policy.grants["attachment:read"] = false

	_, _, err := f.service.ShowByAttachment(context.Background(), domain.Principal{ID: "u-1"}, "a-1")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdateUserEnteredTitle(t *testing.T) {
	f := newFixture()
	f.repo.objects = []*MediaObject{
		{ID: "mo-1", MediaID: "m-1", UserID: "u-1", Title: "original"},
	}

	obj, err := f.service.UpdateUserEnteredTitle(context.Background(), domain.Principal{ID: "u-1"}, "m-1", "renamed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.UserEnteredTitle != "renamed" {
		t.Fatalf("user entered title = %q", obj.UserEnteredTitle)
	}
	if obj.Title != "original" {
		t.Fatalf("provider title must survive a rename, got %q", obj.Title)
	}
}

func TestUpdateUserEnteredTitleNonOwnerUnauthorized(t *testing.T) {
	f := newFixture()
	f.repo.objects = []*MediaObject{
		{ID: "mo-1", MediaID: "m-1", UserID: "u-1"},
	}

	_, err := f.service.UpdateUserEnteredTitle(context.Background(), domain.Principal{ID: "u-2"}, "m-1", "stolen")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdateUserEnteredTitleMissingObjectUnauthorized(t *testing.T) {
	f := newFixture()
	_, err := f.service.UpdateUserEnteredTitle(context.Background(), domain.Principal{ID: "u-1"}, "m-ghost", "x")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestTracksForAttachmentInheritsCanonical(t *testing.T) {
	f := newFixture()
	obj := &MediaObject{ID: "mo-1", MediaID: "m-1", AttachmentID: "a-canonical"}
	att := &Attachment{ID: "a-copy", MediaEntryID: "m-1"}
	f.tracks.byAttachment["a-copy"] = []*MediaTrack{
		{ID: "t-own", AttachmentID: "a-copy", Locale: "en"},
	}
	f.tracks.byAttachment["a-canonical"] = []*MediaTrack{
		{ID: "t-inherited-en", AttachmentID: "a-canonical", Locale: "en"},
		{ID: "t-inherited-fr", AttachmentID: "a-canonical", Locale: "fr"},
	}

	got, err := f.service.TracksForAttachment(context.Background(), att, obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// both en tracks survive, own first
	if len(got) != 3 {
		t.Fatalf("got %d tracks, want 3", len(got))
	}
	if got[0].ID != "t-own" || got[1].ID != "t-inherited-en" || got[2].ID != "t-inherited-fr" {
		t.Fatalf("order wrong: %q, %q, %q", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestTracksForAttachmentOwnOnlyWhenCanonical(t *testing.T) {
	f := newFixture()
	obj := &MediaObject{ID: "mo-1", MediaID: "m-1", AttachmentID: "a-1"}
	att := &Attachment{ID: "a-1", MediaEntryID: "m-1"}
	f.tracks.byAttachment["a-1"] = []*MediaTrack{
		{ID: "t-1", AttachmentID: "a-1", Locale: "en"},
	}

	got, err := f.service.TracksForAttachment(context.Background(), att, obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t-1" {
		t.Fatalf("got %+v", got)
	}
}

func TestCanAddCaptionsForAttachmentRequiresBothRights(t *testing.T) {
	f := newFixture()
	att := &Attachment{ID: "a-1"}
	obj := &MediaObject{ID: "mo-1"}
	principal := domain.Principal{ID: "u-1"}

	if !f.service.CanAddCaptionsForAttachment(context.Background(), principal, att, obj) {
		t.Fatalf("expected true with both rights granted")
	}
	f.policy.grants["attachment:update"] = false
	if f.service.CanAddCaptionsForAttachment(context.Background(), principal, att, obj) {
		t.Fatalf("expected false without the attachment update right")
	}
	f.policy.grants["attachment:update"] = true
	f.policy.grants["media_object:add_captions"] = false
	if f.service.CanAddCaptionsForAttachment(context.Background(), principal, att, obj) {
		t.Fatalf("expected false without the add captions right")
	}
	if f.service.CanAddCaptionsForAttachment(context.Background(), principal, nil, obj) {
		t.Fatalf("expected false for a nil attachment")
	}
}

func TestStreamSourceUsesAttachmentMetadata(t *testing.T) {
	f := newFixture()
	f.repo.objects = []*MediaObject{
		{ID: "mo-1", MediaID: "m-1", Title: "fallback", AttachmentID: "a-1"},
	}
	f.attachments.attachments["a-1"] = &Attachment{ID: "a-1", Filename: "lecture.mp4", ContentType: "video/mp4"}
	f.provider.entries = []SourceEntry{{Bitrate: 128000, URL: "http://cdn.example.com/low.mp4"}}
	f.provider.body = readCloser("payload")
	f.provider.bodyType = "application/octet-stream"

	body, filename, contentType, err := f.service.StreamSource(context.Background(), "m-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()
	if filename != "lecture.mp4" || contentType != "video/mp4" {
		t.Fatalf("metadata = %q, %q", filename, contentType)
	}
}

func TestStreamSourceProviderFailureSurfacesStatus(t *testing.T) {
	f := newFixture()
	f.repo.objects = []*MediaObject{{ID: "mo-1", MediaID: "m-1"}}
	f.provider.entries = []SourceEntry{{Bitrate: 128000, URL: "u"}}
	f.provider.fetchErr = platformerrors.NewExternalError(context.Background(), platformerrors.LayerInfrastructure,
		"provider returned 503", nil, 503, "test")

	_, _, _, err := f.service.StreamSource(context.Background(), "m-1", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := platformerrors.UpstreamStatus(err); got != 503 {
		t.Fatalf("upstream status = %d, want 503", got)
	}
}

func TestStreamSourceUnknownMediaNotFound(t *testing.T) {
	f := newFixture()
	_, _, _, err := f.service.StreamSource(context.Background(), "m-ghost", "")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func readCloser(s string) *nopCloser {
	return &nopCloser{Reader: strings.NewReader(s)}
}

type nopCloser struct {
	*strings.Reader
}

func (n *nopCloser) Close() error { return nil }
