package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

func init() {
	Register("memory", func(cfg *DriverConfig) (Driver, error) {
		return NewMemory(), nil
	})
}

type ownerKey struct {
	packageID uint
	ownerID   uint
	kind      OwnerKind
}

type invitationKey struct {
	packageID     uint
	invitedUserID uint
}

type versionKey struct {
	packageID uint
	num       string
}

type buildKey struct {
	versionID   uint
	rustVersion string
	target      string
}

type packageCategoryKey struct {
	packageID  uint
	categoryID uint
}

// memState is the whole in-memory dataset. Transactions operate on a deep
// copy that replaces the live state on commit.
type memState struct {
	packages       map[uint]*Package
	packagesByName map[string]uint

	users map[uint]*User
	teams map[uint]*Team

	owners      map[ownerKey]*PackageOwner
	invitations map[invitationKey]*OwnerInvitation

	versions      map[uint]*Version
	versionsByNum map[versionKey]uint

	buildRecords map[buildKey]*BuildRecord

	categories        map[uint]*Category
	categoriesBySlug  map[string]uint
	packageCategories map[packageCategoryKey]struct{}

	nextPackageID  uint
	nextUserID     uint
	nextTeamID     uint
	nextVersionID  uint
	nextCategoryID uint
}

func newMemState() *memState {
	return &memState{
		packages:          make(map[uint]*Package),
		packagesByName:    make(map[string]uint),
		users:             make(map[uint]*User),
		teams:             make(map[uint]*Team),
		owners:            make(map[ownerKey]*PackageOwner),
		invitations:       make(map[invitationKey]*OwnerInvitation),
		versions:          make(map[uint]*Version),
		versionsByNum:     make(map[versionKey]uint),
		buildRecords:      make(map[buildKey]*BuildRecord),
		categories:        make(map[uint]*Category),
		categoriesBySlug:  make(map[string]uint),
		packageCategories: make(map[packageCategoryKey]struct{}),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.nextPackageID = s.nextPackageID
	c.nextUserID = s.nextUserID
	c.nextTeamID = s.nextTeamID
	c.nextVersionID = s.nextVersionID
	c.nextCategoryID = s.nextCategoryID
	for id, p := range s.packages {
		cp := *p
		c.packages[id] = &cp
	}
	for k, v := range s.packagesByName {
		c.packagesByName[k] = v
	}
	for id, u := range s.users {
		cu := *u
		c.users[id] = &cu
	}
	for id, t := range s.teams {
		ct := *t
		c.teams[id] = &ct
	}
	for k, o := range s.owners {
		co := *o
		c.owners[k] = &co
	}
	for k, inv := range s.invitations {
		ci := *inv
		c.invitations[k] = &ci
	}
	for id, v := range s.versions {
		cv := *v
		c.versions[id] = &cv
	}
	for k, id := range s.versionsByNum {
		c.versionsByNum[k] = id
	}
	for k, b := range s.buildRecords {
		cb := *b
		c.buildRecords[k] = &cb
	}
	for id, cat := range s.categories {
		cc := *cat
		c.categories[id] = &cc
	}
	for k, id := range s.categoriesBySlug {
		c.categoriesBySlug[k] = id
	}
	for k := range s.packageCategories {
		c.packageCategories[k] = struct{}{}
	}
	return c
}

// Memory is the in-memory datastore driver. It backs tests and the
// default zero-config setup; the sqlite driver carries the same
// conformance suite.
type Memory struct {
	mu     sync.Mutex
	state  *memState
	closed bool
}

// NewMemory creates an empty in-memory datastore.
func NewMemory() *Memory {
	return &Memory{state: newMemState()}
}

func (m *Memory) Name() string                   { return "memory" }
func (m *Memory) Init(ctx context.Context) error { return nil }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Tx clones the state, runs fn against the clone, and swaps the clone in
// on success. The big lock is held across fn, which serializes
// transactions; acceptable for a driver meant for tests and small
// deployments.
func (m *Memory) Tx(ctx context.Context, fn func(Datastore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	work := m.state.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *Memory) run(fn func(*memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return fn(m.state)
}

// memTx is the transactional view handed to Tx callbacks. It operates on
// the cloned state without further locking (the driver lock is held).
type memTx struct {
	state *memState
}

// Nested transactions just join the enclosing one.
func (t *memTx) Tx(ctx context.Context, fn func(Datastore) error) error {
	return fn(t)
}

// The Memory driver and memTx share every repo method through memState.

func (m *Memory) CreatePackage(ctx context.Context, pkg *Package) error {
	return m.run(func(s *memState) error { return s.createPackage(pkg) })
}
func (t *memTx) CreatePackage(ctx context.Context, pkg *Package) error {
	return t.state.createPackage(pkg)
}

func (s *memState) createPackage(pkg *Package) error {
	if _, exists := s.packagesByName[pkg.Canonical]; exists {
		return ErrAlreadyExists
	}
	s.nextPackageID++
	pkg.ID = s.nextPackageID
	now := time.Now().UTC()
	pkg.CreatedAt, pkg.UpdatedAt = now, now
	cp := *pkg
	s.packages[pkg.ID] = &cp
	s.packagesByName[pkg.Canonical] = pkg.ID
	return nil
}

func (m *Memory) GetPackage(ctx context.Context, id uint) (*Package, error) {
	var out *Package
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getPackage(id)
		return err
	})
	return out, err
}
func (t *memTx) GetPackage(ctx context.Context, id uint) (*Package, error) {
	return t.state.getPackage(id)
}

func (s *memState) getPackage(id uint) (*Package, error) {
	p, ok := s.packages[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) GetPackageByName(ctx context.Context, canonical string) (*Package, error) {
	var out *Package
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getPackageByName(canonical)
		return err
	})
	return out, err
}
func (t *memTx) GetPackageByName(ctx context.Context, canonical string) (*Package, error) {
	return t.state.getPackageByName(canonical)
}

func (s *memState) getPackageByName(canonical string) (*Package, error) {
	id, ok := s.packagesByName[canonical]
	if !ok {
		return nil, ErrNotFound
	}
	return s.getPackage(id)
}

func (m *Memory) CreateVersion(ctx context.Context, v *Version) error {
	return m.run(func(s *memState) error { return s.createVersion(v) })
}
func (t *memTx) CreateVersion(ctx context.Context, v *Version) error {
	return t.state.createVersion(v)
}

func (s *memState) createVersion(v *Version) error {
	key := versionKey{packageID: v.PackageID, num: v.Num}
	if _, exists := s.versionsByNum[key]; exists {
		return ErrAlreadyExists
	}
	s.nextVersionID++
	v.ID = s.nextVersionID
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	cp := *v
	s.versions[v.ID] = &cp
	s.versionsByNum[key] = v.ID
	return nil
}

func (m *Memory) GetVersion(ctx context.Context, packageID uint, num string) (*Version, error) {
	var out *Version
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getVersion(packageID, num)
		return err
	})
	return out, err
}
func (t *memTx) GetVersion(ctx context.Context, packageID uint, num string) (*Version, error) {
	return t.state.getVersion(packageID, num)
}

func (s *memState) getVersion(packageID uint, num string) (*Version, error) {
	id, ok := s.versionsByNum[versionKey{packageID: packageID, num: num}]
	if !ok {
		return nil, ErrNotFound
	}
	return s.getVersionByID(id)
}

func (m *Memory) GetVersionByID(ctx context.Context, id uint) (*Version, error) {
	var out *Version
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getVersionByID(id)
		return err
	})
	return out, err
}
func (t *memTx) GetVersionByID(ctx context.Context, id uint) (*Version, error) {
	return t.state.getVersionByID(id)
}

func (s *memState) getVersionByID(id uint) (*Version, error) {
	v, ok := s.versions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *Memory) ListVersionsByIDs(ctx context.Context, ids []uint) ([]*Version, error) {
	var out []*Version
	err := m.run(func(s *memState) error {
		out = s.listVersionsByIDs(ids)
		return nil
	})
	return out, err
}
func (t *memTx) ListVersionsByIDs(ctx context.Context, ids []uint) ([]*Version, error) {
	return t.state.listVersionsByIDs(ids), nil
}

func (s *memState) listVersionsByIDs(ids []uint) []*Version {
	out := make([]*Version, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.versions[id]; ok {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out
}

func (m *Memory) ListVersionsForPackage(ctx context.Context, packageID uint) ([]*Version, error) {
	var out []*Version
	err := m.run(func(s *memState) error {
		out = s.listVersionsForPackage(packageID)
		return nil
	})
	return out, err
}
func (t *memTx) ListVersionsForPackage(ctx context.Context, packageID uint) ([]*Version, error) {
	return t.state.listVersionsForPackage(packageID), nil
}

func (s *memState) listVersionsForPackage(packageID uint) []*Version {
	out := []*Version{}
	for _, v := range s.versions {
		if v.PackageID == packageID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) SetVersionYanked(ctx context.Context, versionID uint, yanked bool) error {
	return m.run(func(s *memState) error { return s.setVersionYanked(versionID, yanked) })
}
func (t *memTx) SetVersionYanked(ctx context.Context, versionID uint, yanked bool) error {
	return t.state.setVersionYanked(versionID, yanked)
}

func (s *memState) setVersionYanked(versionID uint, yanked bool) error {
	v, ok := s.versions[versionID]
	if !ok {
		return ErrNotFound
	}
	v.Yanked = yanked
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, u *User) error {
	return m.run(func(s *memState) error { return s.createUser(u) })
}
func (t *memTx) CreateUser(ctx context.Context, u *User) error {
	return t.state.createUser(u)
}

func (s *memState) createUser(u *User) error {
	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id uint) (*User, error) {
	var out *User
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getUser(id)
		return err
	})
	return out, err
}
func (t *memTx) GetUser(ctx context.Context, id uint) (*User, error) {
	return t.state.getUser(id)
}

func (s *memState) getUser(id uint) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) FindUsersByLogin(ctx context.Context, login string) ([]*User, error) {
	var out []*User
	err := m.run(func(s *memState) error {
		out = s.findUsersByLogin(login)
		return nil
	})
	return out, err
}
func (t *memTx) FindUsersByLogin(ctx context.Context, login string) ([]*User, error) {
	return t.state.findUsersByLogin(login), nil
}

func (s *memState) findUsersByLogin(login string) []*User {
	var out []*User
	for _, u := range s.users {
		if u.Login == login {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) ListUsersByIDs(ctx context.Context, ids []uint) ([]*User, error) {
	var out []*User
	err := m.run(func(s *memState) error {
		out = s.listUsersByIDs(ids)
		return nil
	})
	return out, err
}
func (t *memTx) ListUsersByIDs(ctx context.Context, ids []uint) ([]*User, error) {
	return t.state.listUsersByIDs(ids), nil
}

func (s *memState) listUsersByIDs(ids []uint) []*User {
	out := make([]*User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out
}

func (m *Memory) CreateTeam(ctx context.Context, team *Team) error {
	return m.run(func(s *memState) error { return s.createTeam(team) })
}
func (t *memTx) CreateTeam(ctx context.Context, team *Team) error {
	return t.state.createTeam(team)
}

func (s *memState) createTeam(t *Team) error {
	if _, exists := s.teamsByLogin()[t.Login]; exists {
		return ErrAlreadyExists
	}
	s.nextTeamID++
	t.ID = s.nextTeamID
	t.CreatedAt = time.Now().UTC()
	cp := *t
	s.teams[t.ID] = &cp
	return nil
}

func (s *memState) teamsByLogin() map[string]uint {
	idx := make(map[string]uint, len(s.teams))
	for id, t := range s.teams {
		idx[t.Login] = id
	}
	return idx
}

func (m *Memory) GetTeam(ctx context.Context, id uint) (*Team, error) {
	var out *Team
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getTeam(id)
		return err
	})
	return out, err
}
func (t *memTx) GetTeam(ctx context.Context, id uint) (*Team, error) {
	return t.state.getTeam(id)
}

func (s *memState) getTeam(id uint) (*Team, error) {
	t, ok := s.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) GetTeamByLogin(ctx context.Context, login string) (*Team, error) {
	var out *Team
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getTeamByLogin(login)
		return err
	})
	return out, err
}
func (t *memTx) GetTeamByLogin(ctx context.Context, login string) (*Team, error) {
	return t.state.getTeamByLogin(login)
}

func (s *memState) getTeamByLogin(login string) (*Team, error) {
	id, ok := s.teamsByLogin()[login]
	if !ok {
		return nil, ErrNotFound
	}
	return s.getTeam(id)
}

func (m *Memory) ListTeamsByIDs(ctx context.Context, ids []uint) ([]*Team, error) {
	var out []*Team
	err := m.run(func(s *memState) error {
		out = s.listTeamsByIDs(ids)
		return nil
	})
	return out, err
}
func (t *memTx) ListTeamsByIDs(ctx context.Context, ids []uint) ([]*Team, error) {
	return t.state.listTeamsByIDs(ids), nil
}

func (s *memState) listTeamsByIDs(ids []uint) []*Team {
	out := make([]*Team, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.teams[id]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (m *Memory) ListOwners(ctx context.Context, packageID uint) ([]*PackageOwner, error) {
	var out []*PackageOwner
	err := m.run(func(s *memState) error {
		out = s.listOwners(packageID)
		return nil
	})
	return out, err
}
func (t *memTx) ListOwners(ctx context.Context, packageID uint) ([]*PackageOwner, error) {
	return t.state.listOwners(packageID), nil
}

func (s *memState) listOwners(packageID uint) []*PackageOwner {
	var out []*PackageOwner
	for _, o := range s.owners {
		if o.PackageID == packageID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerKind != out[j].OwnerKind {
			return out[i].OwnerKind == OwnerUser
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	return out
}

func (m *Memory) AddOwner(ctx context.Context, row *PackageOwner) error {
	return m.run(func(s *memState) error { return s.addOwner(row) })
}
func (t *memTx) AddOwner(ctx context.Context, row *PackageOwner) error {
	return t.state.addOwner(row)
}

func (s *memState) addOwner(row *PackageOwner) error {
	key := ownerKey{packageID: row.PackageID, ownerID: row.OwnerID, kind: row.OwnerKind}
	if _, exists := s.owners[key]; exists {
		return ErrAlreadyExists
	}
	row.CreatedAt = time.Now().UTC()
	cp := *row
	s.owners[key] = &cp
	return nil
}

func (m *Memory) RemoveOwner(ctx context.Context, packageID, ownerID uint, kind OwnerKind) error {
	return m.run(func(s *memState) error { return s.removeOwner(packageID, ownerID, kind) })
}
func (t *memTx) RemoveOwner(ctx context.Context, packageID, ownerID uint, kind OwnerKind) error {
	return t.state.removeOwner(packageID, ownerID, kind)
}

func (s *memState) removeOwner(packageID, ownerID uint, kind OwnerKind) error {
	key := ownerKey{packageID: packageID, ownerID: ownerID, kind: kind}
	if _, exists := s.owners[key]; !exists {
		return ErrNotFound
	}
	delete(s.owners, key)
	return nil
}

func (m *Memory) CreateInvitation(ctx context.Context, inv *OwnerInvitation) error {
	return m.run(func(s *memState) error { return s.createInvitation(inv) })
}
func (t *memTx) CreateInvitation(ctx context.Context, inv *OwnerInvitation) error {
	return t.state.createInvitation(inv)
}

func (s *memState) createInvitation(inv *OwnerInvitation) error {
	key := invitationKey{packageID: inv.PackageID, invitedUserID: inv.InvitedUserID}
	if _, exists := s.invitations[key]; exists {
		return ErrAlreadyExists
	}
	inv.CreatedAt = time.Now().UTC()
	cp := *inv
	s.invitations[key] = &cp
	return nil
}

func (m *Memory) GetInvitation(ctx context.Context, packageID, invitedUserID uint) (*OwnerInvitation, error) {
	var out *OwnerInvitation
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getInvitation(packageID, invitedUserID)
		return err
	})
	return out, err
}
func (t *memTx) GetInvitation(ctx context.Context, packageID, invitedUserID uint) (*OwnerInvitation, error) {
	return t.state.getInvitation(packageID, invitedUserID)
}

func (s *memState) getInvitation(packageID, invitedUserID uint) (*OwnerInvitation, error) {
	inv, ok := s.invitations[invitationKey{packageID: packageID, invitedUserID: invitedUserID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *Memory) DeleteInvitation(ctx context.Context, packageID, invitedUserID uint) error {
	return m.run(func(s *memState) error { return s.deleteInvitation(packageID, invitedUserID) })
}
func (t *memTx) DeleteInvitation(ctx context.Context, packageID, invitedUserID uint) error {
	return t.state.deleteInvitation(packageID, invitedUserID)
}

func (s *memState) deleteInvitation(packageID, invitedUserID uint) error {
	key := invitationKey{packageID: packageID, invitedUserID: invitedUserID}
	if _, ok := s.invitations[key]; !ok {
		return ErrNotFound
	}
	delete(s.invitations, key)
	return nil
}

func (m *Memory) ListInvitationsForUser(ctx context.Context, invitedUserID uint) ([]*OwnerInvitation, error) {
	var out []*OwnerInvitation
	err := m.run(func(s *memState) error {
		out = s.listInvitationsForUser(invitedUserID)
		return nil
	})
	return out, err
}
func (t *memTx) ListInvitationsForUser(ctx context.Context, invitedUserID uint) ([]*OwnerInvitation, error) {
	return t.state.listInvitationsForUser(invitedUserID), nil
}

func (s *memState) listInvitationsForUser(invitedUserID uint) []*OwnerInvitation {
	var out []*OwnerInvitation
	for _, inv := range s.invitations {
		if inv.InvitedUserID == invitedUserID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PackageID < out[j].PackageID })
	return out
}

func (m *Memory) UpsertBuildRecord(ctx context.Context, rec *BuildRecord) error {
	return m.run(func(s *memState) error { return s.upsertBuildRecord(rec) })
}
func (t *memTx) UpsertBuildRecord(ctx context.Context, rec *BuildRecord) error {
	return t.state.upsertBuildRecord(rec)
}

func (s *memState) upsertBuildRecord(rec *BuildRecord) error {
	key := buildKey{versionID: rec.VersionID, rustVersion: rec.RustVersion, target: rec.Target}
	now := time.Now().UTC()
	if existing, ok := s.buildRecords[key]; ok {
		existing.Passed = rec.Passed
		existing.UpdatedAt = now
		return nil
	}
	rec.UpdatedAt = now
	cp := *rec
	s.buildRecords[key] = &cp
	return nil
}

func (m *Memory) ListBuildRecords(ctx context.Context, versionID uint) ([]*BuildRecord, error) {
	var out []*BuildRecord
	err := m.run(func(s *memState) error {
		out = s.listBuildRecords(versionID)
		return nil
	})
	return out, err
}
func (t *memTx) ListBuildRecords(ctx context.Context, versionID uint) ([]*BuildRecord, error) {
	return t.state.listBuildRecords(versionID), nil
}

func (s *memState) listBuildRecords(versionID uint) []*BuildRecord {
	var out []*BuildRecord
	for _, b := range s.buildRecords {
		if b.VersionID == versionID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RustVersion != out[j].RustVersion {
			return out[i].RustVersion < out[j].RustVersion
		}
		return out[i].Target < out[j].Target
	})
	return out
}

func (m *Memory) CreateCategory(ctx context.Context, c *Category) error {
	return m.run(func(s *memState) error { return s.createCategory(c) })
}
func (t *memTx) CreateCategory(ctx context.Context, c *Category) error {
	return t.state.createCategory(c)
}

func (s *memState) createCategory(c *Category) error {
	if _, exists := s.categoriesBySlug[c.Slug]; exists {
		return ErrAlreadyExists
	}
	s.nextCategoryID++
	c.ID = s.nextCategoryID
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.categories[c.ID] = &cp
	s.categoriesBySlug[c.Slug] = c.ID
	return nil
}

func (m *Memory) GetCategory(ctx context.Context, id uint) (*Category, error) {
	var out *Category
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getCategory(id)
		return err
	})
	return out, err
}
func (t *memTx) GetCategory(ctx context.Context, id uint) (*Category, error) {
	return t.state.getCategory(id)
}

func (s *memState) getCategory(id uint) (*Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	var out *Category
	err := m.run(func(s *memState) error {
		var err error
		out, err = s.getCategoryBySlug(slug)
		return err
	})
	return out, err
}
func (t *memTx) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	return t.state.getCategoryBySlug(slug)
}

func (s *memState) getCategoryBySlug(slug string) (*Category, error) {
	id, ok := s.categoriesBySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	c := s.categories[id]
	cp := *c
	return &cp, nil
}

func (m *Memory) ListCategories(ctx context.Context, opts ListCategoriesOptions) ([]*Category, int64, error) {
	var out []*Category
	var total int64
	err := m.run(func(s *memState) error {
		out, total = s.listCategories(opts)
		return nil
	})
	return out, total, err
}
func (t *memTx) ListCategories(ctx context.Context, opts ListCategoriesOptions) ([]*Category, int64, error) {
	out, total := t.state.listCategories(opts)
	return out, total, nil
}

func (s *memState) listCategories(opts ListCategoriesOptions) ([]*Category, int64) {
	all := make([]*Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		all = append(all, &cp)
	}
	if opts.Sort == "crates" {
		sort.Slice(all, func(i, j int) bool { return all[i].CratesCnt > all[j].CratesCnt })
	} else {
		sort.Slice(all, func(i, j int) bool { return all[i].Slug < all[j].Slug })
	}
	total := int64(len(all))
	if opts.Offset >= len(all) {
		return []*Category{}, total
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, total
}

func (m *Memory) ListPackageCategoryIDs(ctx context.Context, packageID uint) ([]uint, error) {
	var out []uint
	err := m.run(func(s *memState) error {
		out = s.listPackageCategoryIDs(packageID)
		return nil
	})
	return out, err
}
func (t *memTx) ListPackageCategoryIDs(ctx context.Context, packageID uint) ([]uint, error) {
	return t.state.listPackageCategoryIDs(packageID), nil
}

func (s *memState) listPackageCategoryIDs(packageID uint) []uint {
	var out []uint
	for k := range s.packageCategories {
		if k.packageID == packageID {
			out = append(out, k.categoryID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Memory) AddPackageCategories(ctx context.Context, packageID uint, categoryIDs []uint) error {
	return m.run(func(s *memState) error { return s.addPackageCategories(packageID, categoryIDs) })
}
func (t *memTx) AddPackageCategories(ctx context.Context, packageID uint, categoryIDs []uint) error {
	return t.state.addPackageCategories(packageID, categoryIDs)
}

func (s *memState) addPackageCategories(packageID uint, categoryIDs []uint) error {
	for _, cid := range categoryIDs {
		key := packageCategoryKey{packageID: packageID, categoryID: cid}
		if _, exists := s.packageCategories[key]; exists {
			continue
		}
		s.packageCategories[key] = struct{}{}
		if c, ok := s.categories[cid]; ok {
			c.CratesCnt++
		}
	}
	return nil
}

func (m *Memory) RemovePackageCategories(ctx context.Context, packageID uint, categoryIDs []uint) error {
	return m.run(func(s *memState) error { return s.removePackageCategories(packageID, categoryIDs) })
}
func (t *memTx) RemovePackageCategories(ctx context.Context, packageID uint, categoryIDs []uint) error {
	return t.state.removePackageCategories(packageID, categoryIDs)
}

func (s *memState) removePackageCategories(packageID uint, categoryIDs []uint) error {
	for _, cid := range categoryIDs {
		key := packageCategoryKey{packageID: packageID, categoryID: cid}
		if _, exists := s.packageCategories[key]; !exists {
			continue
		}
		delete(s.packageCategories, key)
		if c, ok := s.categories[cid]; ok && c.CratesCnt > 0 {
			c.CratesCnt--
		}
	}
	return nil
}
