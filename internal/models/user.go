package models

// UserRole mirrors the roles of the surrounding platform. Broadcasts are
// authored by admins; "all" targeting excludes them.
type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleOfficer    UserRole = "extension_officer"
	UserRoleSupervisor UserRole = "supervisor"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusPending  UserStatus = "pending"
	UserStatusDisabled UserStatus = "disabled"
)

// UserAccount is the directory's account record. Account storage itself is
// owned by the wider platform; this module only reads it to resolve broadcast
// recipients, and writes it once to seed the first admin.
type UserAccount struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Status       UserStatus `gorm:"type:varchar(20);default:'pending';index"`
	IsLocked     bool       `gorm:"not null;default:false"`

	// Administrative district the account is registered in.
	DistrictID *string `gorm:"type:uuid;index"`

	Profile *UserProfile `gorm:"foreignKey:UserID"`
	Regions []UserRegion `gorm:"foreignKey:UserID"`
}

// UserProfile carries the account's platform role.
type UserProfile struct {
	BaseModel
	UserID string   `gorm:"type:uuid;not null;uniqueIndex"`
	Name   string   `gorm:"type:varchar(200)"`
	Role   UserRole `gorm:"type:varchar(30);not null;index"`
}

// UserRegion maps an account to the regions it covers (many-to-many).
type UserRegion struct {
	BaseModel
	UserID   string `gorm:"type:uuid;not null;index:idx_user_regions_user_region,priority:1"`
	RegionID string `gorm:"type:uuid;not null;index:idx_user_regions_user_region,priority:2;index"`
}
