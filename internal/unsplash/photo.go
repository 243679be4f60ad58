package unsplash

import "time"

// Photo is a single record of the random photo endpoint.
type Photo struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Color          string    `json:"color,omitempty"`
	Description    string    `json:"description,omitempty"`
	AltDescription string    `json:"alt_description,omitempty"`
	Likes          int       `json:"likes"`
	Urls           Urls      `json:"urls"`
	Links          Links     `json:"links"`
	Exif           *Exif     `json:"exif,omitempty"`
	Location       *Location `json:"location,omitempty"`
	User           *User     `json:"user,omitempty"`
}

// Urls holds the photo at several resolutions.
type Urls struct {
	Raw     string `json:"raw,omitempty"`
	Full    string `json:"full,omitempty"`
	Regular string `json:"regular,omitempty"`
	Small   string `json:"small,omitempty"`
	Thumb   string `json:"thumb,omitempty"`
}

type Links struct {
	Self             string `json:"self,omitempty"`
	HTML             string `json:"html,omitempty"`
	Download         string `json:"download,omitempty"`
	DownloadLocation string `json:"download_location,omitempty"`
}

type Exif struct {
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	ExposureTime string `json:"exposure_time,omitempty"`
	Aperture     string `json:"aperture,omitempty"`
	FocalLength  string `json:"focal_length,omitempty"`
	ISO          *int   `json:"iso,omitempty"`
}

type Location struct {
	Name     string    `json:"name,omitempty"`
	City     string    `json:"city,omitempty"`
	Country  string    `json:"country,omitempty"`
	Position *Position `json:"position,omitempty"`
}

type Position struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// User is the photographer the photo is attributed to.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name,omitempty"`
	Links    UserLinks `json:"links"`
}

type UserLinks struct {
	Self      string `json:"self,omitempty"`
	HTML      string `json:"html,omitempty"`
	Photos    string `json:"photos,omitempty"`
	Likes     string `json:"likes,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// DisplayTitle returns the best human readable label for the photo.
func (p Photo) DisplayTitle() string {
	if p.Description != "" {
		return p.Description
	}
	if p.AltDescription != "" {
		return p.AltDescription
	}
	return p.ID
}

// Attribution returns "Photo by <name>" or an empty string when the user is unknown.
func (p Photo) Attribution() string {
	if p.User == nil {
		return ""
	}
	name := p.User.Name
	if name == "" {
		name = p.User.Username
	}
	if name == "" {
		return ""
	}
	return "Photo by " + name
}

// Camera describes the camera from the EXIF block, e.g. "Canon EOS R5".
func (p Photo) Camera() string {
	if p.Exif == nil {
		return ""
	}
	switch {
	case p.Exif.Make != "" && p.Exif.Model != "":
		return p.Exif.Make + " " + p.Exif.Model
	case p.Exif.Model != "":
		return p.Exif.Model
	default:
		return p.Exif.Make
	}
}

// Place returns the location name, falling back to "city, country".
func (p Photo) Place() string {
	if p.Location == nil {
		return ""
	}
	if p.Location.Name != "" {
		return p.Location.Name
	}
	switch {
	case p.Location.City != "" && p.Location.Country != "":
		return p.Location.City + ", " + p.Location.Country
	case p.Location.City != "":
		return p.Location.City
	default:
		return p.Location.Country
	}
}
