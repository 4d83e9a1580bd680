package model

import "time"

// Role é o tipo de usuário no back-office
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleHotel      Role = "HOTEL"
)

// Valid verifica se o papel é conhecido
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleHotel:
		return true
	}
	return false
}

// IsAdministrative indica papéis com acesso à área administrativa
func (r Role) IsAdministrative() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// UserEntity é a representação de banco de dados de um usuário
type UserEntity struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	UUID          string    `gorm:"column:uuid;uniqueIndex;size:36;not null"`
	Name          string    `gorm:"size:255;not null"`
	Email         string    `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string    `gorm:"column:password_hash;size:255;not null"`
	UserType      Role      `gorm:"column:user_type;size:20;not null;index"`
	Active        bool      `gorm:"not null"`
	EmailVerified bool      `gorm:"not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (UserEntity) TableName() string {
	return "users"
}

// UserPermission é uma permissão global concedida a um usuário.
// O índice único impede a mesma permissão duas vezes para o mesmo usuário.
type UserPermission struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_permission" json:"-"`
	Permission string    `gorm:"size:100;not null;uniqueIndex:idx_user_permission;check:permission <> ''" json:"permission"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"granted_at"`
}

// TableName define o nome da tabela
func (UserPermission) TableName() string {
	return "user_permissions"
}
