package models

import "time"

// Role tiers. Admins act across every registered app; users act only inside
// apps they hold an active RoleAssignment for.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID               int     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username         string  `gorm:"uniqueIndex;not null" json:"username"`
	Email            string  `gorm:"uniqueIndex;not null" json:"email"`
	FirstName        string  `gorm:"not null" json:"firstName"`
	LastName         string  `gorm:"not null" json:"lastName"`
	PasswordHash     string  `gorm:"not null" json:"-"`
	Role             string  `gorm:"type:varchar(8);not null;default:user" json:"role"`
	Office           string  `json:"office"`
	MobileNo         string  `json:"mobileNo"`
	Avatar           string  `json:"avatar"`
	IsActive         bool    `gorm:"not null;default:true" json:"isActive"`
	ResetToken       *string `gorm:"index" json:"-"`
	ResetTokenExpiry *int64  `json:"-"` // unix milliseconds
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// App is a registered tenant application users can be granted roles in.
type App struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	URL          string    `gorm:"not null" json:"url"`
	OwnerOffice  string    `gorm:"not null" json:"ownerOffice"`
	Email        string    `gorm:"not null" json:"email"`
	MobileNumber string    `gorm:"not null" json:"mobileNumber"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Assignments []RoleAssignment `gorm:"foreignKey:AppID" json:"assignments,omitempty"`
}

// RoleAssignment links a user to an app with a per-app role label.
// At most one assignment per (user, app) pair.
type RoleAssignment struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_assignment_user_app" json:"userId"`
	AppID     int       `gorm:"not null;uniqueIndex:idx_assignment_user_app" json:"appId"`
	UserType  string    `gorm:"not null" json:"userType"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// UserType is the catalog of role labels assignments may use.
type UserType struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserType  string    `gorm:"uniqueIndex;not null" json:"userType"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RefreshToken is the durable half of a session. Deletion is revocation;
// a row past ExpiresAt is rejected at verify time and reaped by the sweeper.
type RefreshToken struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string    `gorm:"uniqueIndex;size:191;not null" json:"-"`
	UserID    int       `gorm:"index;not null" json:"userId"`
	AppID     int       `gorm:"not null" json:"appId"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActionLog is append-only. Rows are never updated or deleted.
type ActionLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Action     string    `gorm:"not null" json:"action"`
	Details    JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"details"`
	UserID     int       `gorm:"not null" json:"userId"`
	TargetID   int       `json:"targetId"`
	TargetType string    `json:"targetType"`
	IPAddress  string    `json:"ipAddress"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MqttAccess grants a user's email a broker client identity.
type MqttAccess struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	ClientID  string    `gorm:"uniqueIndex;not null" json:"clientId"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GoogleUser is an identity arriving through the Google sign-in handoff.
type GoogleUser struct {
	ID         int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	GoogleID   string    `gorm:"uniqueIndex" json:"googleId"`
	ProfilePic string    `json:"profilePic"`
	IsActive   bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
