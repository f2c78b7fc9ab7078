package model

// Profile is the member profile held by the remote API
type Profile struct {
	UserID           int     `json:"userId"`
	Name             string  `json:"name"`
	Email            string  `json:"email,omitempty"`
	Mobile           string  `json:"mobile,omitempty"`
	Address          string  `json:"address,omitempty"`
	DOB              *string `json:"dob,omitempty"`
	Gender           string  `json:"gender,omitempty"`
	CommunityInfo    string  `json:"communityInfo,omitempty"`
	ProfilePhotoPath string  `json:"profilePhotoPath,omitempty"`
}
