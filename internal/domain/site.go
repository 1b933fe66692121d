package domain

// Company details shown in the header, contact section and footer.
const (
	CompanyName    = "S V Electricals and Engineering Works"
	CompanyTagline = "Leading manufacturer of industrial cranes, constructor of industrial sheds, and provider of comprehensive maintenance services"
	CompanyPhone   = "+91 83108 81293"
	CompanyEmail   = "shankarsvelectricals.engworks@gmail.com"
)

// Stat is one figure in the about section.
type Stat struct {
	Value string
	Label string
	Icon  string
	Color string
}

// Service is one card in the services grid.
type Service struct {
	ID          int
	Icon        string
	Title       string
	Subtitle    string
	Description string
	Features    []string
	Gradient    string
}

// ContactInfo is one block of the contact information panel. Details are
// rendered as links when LinkPrefix is set (tel:, mailto:).
type ContactInfo struct {
	Icon       string
	Title      string
	Details    []string
	LinkPrefix string
	Color      string
}

// MapLocation configures the embedded map widget.
type MapLocation struct {
	Latitude  float64
	Longitude float64
	Zoom      int
	Popup     []string
}

// Link is a footer navigation entry pointing at a page section.
type Link struct {
	Name string
	Href string
}

// Site is everything the home page renders apart from the form state.
type Site struct {
	Name        string
	Tagline     string
	Highlights  []string
	Stats       []Stat
	Services    []Service
	ContactInfo []ContactInfo
	Location    MapLocation
	QuickLinks  []Link
	FooterItems []string
	Categories  []string
	ServiceOpts []string
}

// DefaultSite returns the content of the company home page.
func DefaultSite() Site {
	return Site{
		Name:       CompanyName,
		Tagline:    CompanyTagline,
		Highlights: []string{"Industrial Cranes", "Industrial Sheds", "Maintenance"},
		Stats: []Stat{
			{Value: "15+", Label: "Years Experience", Icon: "calendar", Color: "text-blue-600"},
			{Value: "500+", Label: "Happy Clients", Icon: "users", Color: "text-green-600"},
			{Value: "1000+", Label: "Projects Completed", Icon: "target", Color: "text-purple-600"},
			{Value: "ISO", Label: "Quality Standards", Icon: "award", Color: "text-yellow-600"},
		},
		Services: []Service{
			{
				ID:          1,
				Icon:        "truck",
				Title:       "Industrial Cranes",
				Subtitle:    "Manufacturing & Installation",
				Description: "Complete range of industrial cranes designed for heavy-duty operations and optimal performance.",
				Features:    []string{"Overhead Cranes", "Jib Cranes", "A-Frame Cranes", "Gantry Cranes", "Custom Designs"},
				Gradient:    "from-blue-500 to-blue-700",
			},
			{
				ID:          2,
				Icon:        "building",
				Title:       "Industrial Sheds",
				Subtitle:    "Construction & Design",
				Description: "Robust industrial shed construction with modern engineering techniques and quality materials.",
				Features:    []string{"Pre-Engineered Buildings", "Warehouse Construction", "Factory Sheds", "Storage Facilities", "Steel Structures"},
				Gradient:    "from-green-500 to-green-700",
			},
			{
				ID:          3,
				Icon:        "settings",
				Title:       "Maintenance Services",
				Subtitle:    "Support & Repair",
				Description: "Comprehensive maintenance and repair services to ensure optimal performance and longevity.",
				Features:    []string{"Preventive Maintenance", "Emergency Repairs", "Parts Replacement", "Performance Upgrades", "24/7 Support"},
				Gradient:    "from-purple-500 to-purple-700",
			},
		},
		ContactInfo: []ContactInfo{
			{Icon: "phone", Title: "Phone", Details: []string{CompanyPhone}, LinkPrefix: "tel:", Color: "text-blue-600"},
			{Icon: "mail", Title: "Email", Details: []string{CompanyEmail}, LinkPrefix: "mailto:", Color: "text-green-600"},
			{
				Icon:    "map-pin",
				Title:   "Address",
				Details: []string{"13th Cross, Andrahalli Main Road, Near Jodi Muneshwara Temple", "Peenya 2nd Stage, Bengaluru 560091"},
				Color:   "text-purple-600",
			},
			{Icon: "clock", Title: "Business Hours", Details: []string{"Mon - Sat: 9:00 AM - 6:00 PM", "Sunday: Closed"}, Color: "text-orange-600"},
		},
		Location: MapLocation{
			Latitude:  13.011606,
			Longitude: 77.491790,
			Zoom:      14,
			Popup:     []string{CompanyName, "Industrial Area, Sector 15", "Peenya 2nd Stage, Bengaluru - 560091"},
		},
		QuickLinks: []Link{
			{Name: "Home", Href: "#home"},
			{Name: "About Us", Href: "#about"},
			{Name: "Services", Href: "#services"},
			{Name: "Gallery", Href: "#gallery"},
			{Name: "Contact", Href: "#contact"},
		},
		FooterItems: []string{"Overhead Cranes", "Jib Cranes", "A-Frame Cranes", "Industrial Sheds", "Maintenance Services"},
		Categories:  GalleryCategories,
		ServiceOpts: ServiceOptions,
	}
}
