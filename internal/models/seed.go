package models

import (
	"time"

	"github.com/huangang/researchhub/internal/utils"
	"gorm.io/gorm"
)

const (
	DefaultUserEmail    = "admin@example.com"
	DefaultUserName     = "admin"
	DefaultUserPassword = "password123"
)

type seedProject struct {
	project Project
	media   []ProjectMedia
}

const (
	sampleVideo = "https://www.w3schools.com/html/mov_bbb.mp4"
	samplePDF   = "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf"
)

func sampleProjects() []seedProject {
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	unsplash := func(id string) string {
		return "https://images.unsplash.com/photo-" + id + "?auto=format&fit=crop&w=400&q=80"
	}

	return []seedProject{
		{
			project: Project{
				Title:       "AI for Healthcare",
				Description: "Exploring the use of artificial intelligence in medical diagnostics and patient care.",
				Thumbnail:   unsplash("1506744038136-46273834b3fb"),
				CreatedAt:   at("2024-06-01T10:00:00Z"),
			},
			media: []ProjectMedia{
				{Type: MediaTypeVideo, URL: sampleVideo, Filename: "ai_healthcare_intro.mp4"},
				{Type: MediaTypeDoc, URL: samplePDF, Filename: "research_paper.pdf"},
				{Type: MediaTypeImage, URL: unsplash("1465101046530-73398c7f28ca"), Filename: "chart.jpg"},
			},
		},
		{
			project: Project{
				Title:       "Renewable Energy Storage",
				Description: "Innovative solutions for storing solar and wind energy efficiently.",
				Thumbnail:   unsplash("1464983953574-0892a716854b"),
				CreatedAt:   at("2024-05-15T14:30:00Z"),
			},
			media: []ProjectMedia{
				{Type: MediaTypeVideo, URL: sampleVideo, Filename: "energy_storage_overview.mp4"},
				{Type: MediaTypeDoc, URL: samplePDF, Filename: "storage_whitepaper.pdf"},
				{Type: MediaTypeImage, URL: unsplash("1501594907352-04cda38ebc29"), Filename: "battery.jpg"},
			},
		},
		{
			project: Project{
				Title:       "Urban Agriculture Revolution",
				Description: "Transforming city landscapes with vertical farming and sustainable food production systems.",
				Thumbnail:   unsplash("1574943320219-553eb213f72d"),
				CreatedAt:   at("2024-04-20T09:15:00Z"),
			},
			media: []ProjectMedia{
				{Type: MediaTypeDoc, URL: samplePDF, Filename: "farming_techniques.pdf"},
				{Type: MediaTypeImage, URL: unsplash("1416879595882-3373a0480b5b"), Filename: "vertical_garden.jpg"},
			},
		},
		{
			project: Project{
				Title:       "Ocean Conservation Initiative",
				Description: "Protecting marine ecosystems through advanced monitoring and restoration technologies.",
				Thumbnail:   unsplash("1559827260-dc66d52bef19"),
				CreatedAt:   at("2024-03-10T16:45:00Z"),
			},
			media: []ProjectMedia{
				{Type: MediaTypeVideo, URL: sampleVideo, Filename: "ocean_restoration.mp4"},
				{Type: MediaTypeImage, URL: unsplash("1583212292454-1fe6229603b7"), Filename: "coral_reef.jpg"},
				{Type: MediaTypeDoc, URL: samplePDF, Filename: "marine_biology_report.pdf"},
			},
		},
		{
			project: Project{
				Title:       "Mars Colony Planning",
				Description: "Comprehensive research and planning for establishing sustainable human settlements on Mars.",
				Thumbnail:   unsplash("1446776653964-20c1d3a81b06"),
				CreatedAt:   at("2024-02-28T11:20:00Z"),
			},
			media: []ProjectMedia{
				{Type: MediaTypeImage, URL: unsplash("1614728263952-84ea256f9679"), Filename: "mars_surface.jpg"},
				{Type: MediaTypeDoc, URL: samplePDF, Filename: "habitat_design.pdf"},
			},
		},
	}
}

// SeedDefaultData creates the default account, and sample projects when
// withSamples is set. Each part runs only against an empty table.
func SeedDefaultData(db *gorm.DB, withSamples bool) error {
	var userCount int64
	if err := db.Model(&User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount == 0 {
		hash, err := utils.HashPassword(DefaultUserPassword)
		if err != nil {
			return err
		}
		admin := User{Username: DefaultUserName, Email: DefaultUserEmail, Password: hash}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
	}

	if !withSamples {
		return nil
	}

	var projectCount int64
	if err := db.Model(&Project{}).Count(&projectCount).Error; err != nil {
		return err
	}
	if projectCount > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, sp := range sampleProjects() {
			p := sp.project
			p.UpdatedAt = p.CreatedAt
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			for _, m := range sp.media {
				m.ProjectID = p.ID
				if err := tx.Create(&m).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
