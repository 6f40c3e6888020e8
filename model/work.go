package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Work represents a single portfolio entry ("works" collection).
// @Description Portfolio work information
type Work struct {
	gorm.Model
	Title       string `json:"title" gorm:"column:title;type:varchar(255)" example:"Showreel 2025"`
	Description string `json:"description" gorm:"column:description;type:text"`
	Category    string `json:"category" gorm:"column:category;type:varchar(128)" example:"Graphic Design"`
	// Type distinguishes the rendering pipeline: "Video" entries carry a
	// VideoURL, "Graphic" entries an ImageURL.
	Type     string `json:"type" gorm:"column:type;type:varchar(32);index" example:"Video"`
	VideoURL string `json:"video_url" gorm:"column:video_url;type:varchar(512)"`
	ImageURL string `json:"image_url" gorm:"column:image_url;type:varchar(512)"`
	// Tech stores the technology tag list as a JSON array.
	Tech        datatypes.JSON `json:"tech" gorm:"column:tech;type:json"`
	AspectRatio string         `json:"aspect_ratio" gorm:"column:aspect_ratio;type:varchar(16)" example:"16/9"`
	// SortOrder is the ascending display position. NULL means the entry was
	// never ordered and sorts after all ordered entries.
	SortOrder *int `json:"sort_order" gorm:"column:sort_order;index"`
}
