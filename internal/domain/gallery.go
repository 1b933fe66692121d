package domain

import "fmt"

// CategoryAll selects every gallery image.
const CategoryAll = "All"

// GalleryCategories are the filter buttons shown above the gallery grid.
var GalleryCategories = []string{CategoryAll, "Cranes", "Sheds", "Maintenance"}

// GalleryImage is one project photo in the gallery.
type GalleryImage struct {
	ID          int
	Slug        string
	Title       string
	Category    string
	Description string
	// FallbackURL is used when the image has not been uploaded to storage.
	FallbackURL string
}

// StorageKey returns the key of the original photo in storage.
func (img GalleryImage) StorageKey() string {
	return fmt.Sprintf("gallery/%s.jpg", img.Slug)
}

// ThumbnailKey returns the key of the generated thumbnail in storage.
func (img GalleryImage) ThumbnailKey() string {
	return fmt.Sprintf("gallery/thumbnails/%s.jpg", img.Slug)
}

// GalleryImages is the project catalogue in display order.
var GalleryImages = []GalleryImage{
	{
		ID:          1,
		Slug:        "overhead-crane-installation",
		Title:       "Overhead Crane Installation",
		Category:    "Cranes",
		Description: "Heavy-duty overhead crane installation for manufacturing facility",
		FallbackURL: "https://images.unsplash.com/photo-1581094794329-c8112a89af12?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          2,
		Slug:        "industrial-shed-construction",
		Title:       "Industrial Shed Construction",
		Category:    "Sheds",
		Description: "Large-scale industrial shed construction project",
		FallbackURL: "https://images.unsplash.com/photo-1504307651254-35680f356dfd?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          3,
		Slug:        "jib-crane-assembly",
		Title:       "Jib Crane Assembly",
		Category:    "Cranes",
		Description: "Precision jib crane assembly and installation",
		FallbackURL: "https://images.unsplash.com/photo-1558618047-3c8c76ca7d13?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          4,
		Slug:        "warehouse-construction",
		Title:       "Warehouse Construction",
		Category:    "Sheds",
		Description: "Modern warehouse facility construction",
		FallbackURL: "https://images.unsplash.com/photo-1513475382585-d06e58bcb0e0?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          5,
		Slug:        "gantry-crane-project",
		Title:       "Gantry Crane Project",
		Category:    "Cranes",
		Description: "Custom gantry crane for heavy lifting operations",
		FallbackURL: "https://images.unsplash.com/photo-1597149323099-20c04d7bb5e8?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          6,
		Slug:        "steel-structure-assembly",
		Title:       "Steel Structure Assembly",
		Category:    "Sheds",
		Description: "Industrial steel structure framework assembly",
		FallbackURL: "https://images.unsplash.com/photo-1541888946425-d81bb19240f5?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          7,
		Slug:        "maintenance-service",
		Title:       "Maintenance Service",
		Category:    "Maintenance",
		Description: "Routine maintenance and inspection service",
		FallbackURL: "https://images.unsplash.com/photo-1611196024254-d2c37a6b83de?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
	{
		ID:          8,
		Slug:        "a-frame-crane-installation",
		Title:       "A-Frame Crane Installation",
		Category:    "Cranes",
		Description: "Heavy-duty A-frame crane installation project",
		FallbackURL: "https://images.unsplash.com/photo-1584464491033-06628f3a6b7b?ixlib=rb-4.0.3&auto=format&fit=crop&w=800&q=80",
	},
}

// NormalizeCategory maps an arbitrary filter value to a known category.
// Unknown or empty values fall back to CategoryAll.
func NormalizeCategory(category string) string {
	for _, c := range GalleryCategories {
		if c == category {
			return c
		}
	}
	return CategoryAll
}

// FilterGallery returns the images in the given category, keeping
// catalogue order.
func FilterGallery(images []GalleryImage, category string) []GalleryImage {
	category = NormalizeCategory(category)
	if category == CategoryAll {
		return images
	}
	filtered := make([]GalleryImage, 0, len(images))
	for _, img := range images {
		if img.Category == category {
			filtered = append(filtered, img)
		}
	}
	return filtered
}

// Lightbox is an open overlay showing one image of a filtered list.
type Lightbox struct {
	Images []GalleryImage
	Index  int
}

// OpenLightbox opens the overlay at index of the filtered images.
func OpenLightbox(images []GalleryImage, index int) (Lightbox, error) {
	if index < 0 || index >= len(images) {
		return Lightbox{}, NotFound("gallery.OpenLightbox", "image", fmt.Sprint(index))
	}
	return Lightbox{Images: images, Index: index}, nil
}

// Current returns the image on display.
func (l Lightbox) Current() GalleryImage {
	return l.Images[l.Index]
}

// NextIndex wraps from the last image back to the first.
func (l Lightbox) NextIndex() int {
	return (l.Index + 1) % len(l.Images)
}

// PrevIndex wraps from the first image to the last.
func (l Lightbox) PrevIndex() int {
	if l.Index == 0 {
		return len(l.Images) - 1
	}
	return l.Index - 1
}
