package store

import "time"

// OwnerKind tags a PackageOwner row as a user or a team.
type OwnerKind string

const (
	OwnerUser OwnerKind = "user"
	OwnerTeam OwnerKind = "team"
)

// Package is a named, versioned publishable unit (a crate).
type Package struct {
	ID uint `json:"id" gorm:"primaryKey"`

	// Name is the display name as published ("foo", "foo/bar").
	Name string `json:"name"`

	// Canonical is the case/separator-folded lookup form; unique.
	Canonical string `json:"canonical" gorm:"uniqueIndex"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an individual account. Inactive placeholder rows (gh_id < 0)
// exist so a crate owner can be referenced before the real account ever
// logs in; when several rows share a login, the one with the highest
// gh_id is the most recent account we know of.
type User struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Login     string `json:"login" gorm:"index"`
	Name      string `json:"name"`
	GHID      int64  `json:"gh_id" gorm:"column:gh_id"`
	Active    bool   `json:"active"`
	AvatarURL string `json:"avatar_url"`

	CreatedAt time.Time `json:"created_at"`
}

// Team is a group identity backed by an external org ("github:org:team").
type Team struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Login string `json:"login" gorm:"uniqueIndex"`
	Name  string `json:"name"`

	CreatedAt time.Time `json:"created_at"`
}

// PackageOwner is one owner membership row. Uniqueness is enforced on
// (package, owner, kind).
type PackageOwner struct {
	PackageID uint      `json:"package_id" gorm:"primaryKey;autoIncrement:false"`
	OwnerID   uint      `json:"owner_id" gorm:"primaryKey;autoIncrement:false"`
	OwnerKind OwnerKind `json:"owner_kind" gorm:"primaryKey"`

	CreatedAt time.Time `json:"created_at"`
}

// OwnerInvitation is a pending offer of individual ownership. It is
// created by an authorized owner, and deleted (never archived) on accept
// or decline. At most one row exists per (package, invited user).
type OwnerInvitation struct {
	PackageID       uint `json:"package_id" gorm:"primaryKey;autoIncrement:false"`
	InvitedUserID   uint `json:"invited_user_id" gorm:"primaryKey;autoIncrement:false"`
	InvitedByUserID uint `json:"invited_by_user_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Version belongs to exactly one Package; (package, num) is unique.
type Version struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	PackageID uint   `json:"package_id" gorm:"uniqueIndex:idx_pkg_num"`
	Num       string `json:"num" gorm:"uniqueIndex:idx_pkg_num"`

	Yanked bool `json:"yanked"`

	// FeaturesJSON is the feature map (name -> dependent features)
	// encoded as JSON, mirroring how the index stores it.
	FeaturesJSON string `json:"features" gorm:"column:features"`

	Downloads int64 `json:"downloads"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BuildRecord is one pass/fail result for (version, toolchain, target).
type BuildRecord struct {
	VersionID   uint   `json:"version_id" gorm:"primaryKey;autoIncrement:false"`
	RustVersion string `json:"rust_version" gorm:"primaryKey"`
	Target      string `json:"target" gorm:"primaryKey"`

	Passed    bool      `json:"passed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is a curated crate category.
type Category struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	Name        string `json:"category"`
	Description string `json:"description"`

	// CratesCnt is maintained by membership writes rather than counted
	// on read.
	CratesCnt int64     `json:"crates_cnt"`
	CreatedAt time.Time `json:"created_at"`
}

// PackageCategory is one crate-category membership row.
type PackageCategory struct {
	PackageID  uint `json:"package_id" gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint `json:"category_id" gorm:"primaryKey;autoIncrement:false"`
}
