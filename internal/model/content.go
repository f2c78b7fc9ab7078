package model

// CarouselSlide is one image of the home page carousel
type CarouselSlide struct {
	ID          int    `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CtaText     string `json:"ctaText,omitempty"`
	CtaLink     string `json:"ctaLink,omitempty"`
}

// InformationBlock is a paragraph of the "about us" information section
type InformationBlock struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewsItem is a news article
type NewsItem struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	ImageURL string `json:"imageUrl"`
	NewsDate string `json:"newsDate"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Content  string `json:"content,omitempty"`
}

// Event is a community event
type Event struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	EventDate   string `json:"eventDate"`
	EventTime   string `json:"eventTime"`
	Location    string `json:"location"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Status      string `json:"status"`
	Attendees   int    `json:"attendees,omitempty"`
	Content     string `json:"content,omitempty"`
}

// Download is a downloadable document
type Download struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FileType    string `json:"fileType"`
	FileURL     string `json:"fileUrl,omitempty"`
	Size        string `json:"size"`
	UploadDate  string `json:"uploadDate"`
	Downloads   int    `json:"downloads"`
	Category    string `json:"category"`
}

// CommitteeMember is one entry of the committee directory
type CommitteeMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Image      string `json:"image"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Bio        string `json:"bio"`
	JoinYear   int    `json:"joinYear"`
}

// Menu is a navigation entry configured on the server
type Menu struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Path        string `json:"path"`
	OrderNo     int    `json:"orderNo"`
	IsActive    bool   `json:"isActive"`
	IsAdminOnly bool   `json:"isAdminOnly"`
}

// PendingUser is a registration awaiting admin approval
type PendingUser struct {
	ID       int    `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Status   string `json:"status"`
}
