package models

import "time"

// Media kinds stored in project_media.type.
const (
	MediaTypeVideo = "video"
	MediaTypeImage = "image"
	MediaTypeDoc   = "doc"
)

// Project is a research repository entry. Projects have no owner.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Thumbnail   string         `gorm:"size:1000" json:"thumbnail"`
	Media       []ProjectMedia `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"media"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProjectMedia is a file attached to a project.
type ProjectMedia struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ProjectID    uint      `gorm:"index;not null" json:"project_id"`
	Project      *Project  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Type         string    `gorm:"size:10;not null;check:type IN ('video','image','doc')" json:"type"`
	URL          string    `gorm:"size:1000;not null" json:"url"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	ThumbnailURL *string   `gorm:"size:1000" json:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProjectComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Author    string    `gorm:"->;-:migration" json:"author"` // users.username, filled by join
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// ProjectLike is unique per (project, user).
type ProjectLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index;uniqueIndex:idx_project_likes_project_user" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_project_likes_project_user" json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Author    string    `gorm:"->;-:migration" json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

func (Project) TableName() string        { return "projects" }
func (ProjectMedia) TableName() string   { return "project_media" }
func (ProjectComment) TableName() string { return "project_comments" }
func (ProjectLike) TableName() string    { return "project_likes" }

func IsValidMediaType(t string) bool {
	return t == MediaTypeVideo || t == MediaTypeImage || t == MediaTypeDoc
}
