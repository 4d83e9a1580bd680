package model

import (
	"time"

	"gorm.io/datatypes"
)

// Papéis de um usuário dentro de um hotel
const (
	HotelRoleOwner   = "OWNER"
	HotelRoleManager = "MANAGER"
	HotelRoleStaff   = "STAFF"
)

// Hotel é a representação de banco de dados de um hotel
type Hotel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UUID      string    `gorm:"column:uuid;uniqueIndex;size:36;not null"`
	Name      string    `gorm:"size:255;not null"`
	Active    bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (Hotel) TableName() string {
	return "hotels"
}

// UserHotel liga um usuário a um hotel. A remoção é lógica (Active=false);
// o índice único garante um vínculo por par usuário/hotel.
type UserHotel struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_user_hotel"`
	HotelID     uint           `gorm:"not null;uniqueIndex:idx_user_hotel;index"`
	Role        string         `gorm:"size:50;not null"`
	Permissions datatypes.JSON
	Active      bool           `gorm:"not null"`
	JoinedAt    time.Time      `gorm:"not null"`
}

// TableName define o nome da tabela
func (UserHotel) TableName() string {
	return "user_hotels"
}

// Workspace pertence a um hotel
type Workspace struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UUID        string    `gorm:"column:uuid;uniqueIndex;size:36;not null"`
	HotelID     uint      `gorm:"not null;index"`
	Name        string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text"`
	Active      bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName define o nome da tabela
func (Workspace) TableName() string {
	return "workspaces"
}

// HotelSummary é a visão de um vínculo ativo usada por listagens e pelo cache
type HotelSummary struct {
	HotelID     uint           `json:"hotel_id"`
	HotelUUID   string         `json:"hotel_uuid"`
	Name        string         `json:"name"`
	Role        string         `json:"role"`
	Permissions datatypes.JSON `json:"permissions"`
	Active      bool           `json:"active"`
	JoinedAt    time.Time      `json:"joined_at"`
}

// HotelDetail acrescenta ao vínculo os dados do próprio hotel
type HotelDetail struct {
	HotelID        uint           `json:"hotel_id"`
	HotelUUID      string         `json:"hotel_uuid"`
	Name           string         `json:"name"`
	HotelActive    bool           `json:"hotel_active"`
	HotelCreatedAt time.Time      `json:"hotel_created_at"`
	Role           string         `json:"role"`
	Permissions    datatypes.JSON `json:"permissions"`
	JoinedAt       time.Time      `json:"joined_at"`
}

// WorkspaceSummary é um workspace acessível pelo usuário através de um hotel
type WorkspaceSummary struct {
	ID        uint   `json:"id"`
	UUID      string `json:"uuid"`
	HotelID   uint   `json:"hotel_id"`
	HotelName string `json:"hotel_name"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
}
