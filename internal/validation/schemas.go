package validation

import (
	"github.com/sakif/altdirectory/internal/model"
)

const (
	msgName       = "Name is required"
	msgSlug       = "Slug is required"
	msgWebsiteURL = "Invalid website URL"
	msgURL        = "Invalid URL"
	msgEmail      = "Invalid email"
)

func CreateCategory(in *model.NewCategory) error {
	var c checker
	c.required("name", &in.Name, msgName)
	c.required("slug", &in.Slug, msgSlug)
	return c.err()
}

func UpdateCategory(p *model.CategoryPatch) error {
	var c checker
	c.present("name", p.Name, msgName)
	c.present("slug", p.Slug, msgSlug)
	return c.err()
}

func CreateAlternative(in *model.NewAlternative) error {
	var c checker
	c.required("name", &in.Name, msgName)
	c.required("slug", &in.Slug, msgSlug)
	c.url("websiteUrl", &in.WebsiteURL, msgWebsiteURL)
	c.optionalURL("faviconUrl", in.FaviconURL, msgURL)
	return c.err()
}

func UpdateAlternative(p *model.AlternativePatch) error {
	var c checker
	c.present("name", p.Name, msgName)
	c.present("slug", p.Slug, msgSlug)
	c.optionalURL("websiteUrl", p.WebsiteURL, msgWebsiteURL)
	c.optionalURL("faviconUrl", p.FaviconURL, msgURL)
	return c.err()
}

func CreateTool(in *model.NewTool) error {
	var c checker
	c.required("name", &in.Name, msgName)
	c.required("slug", &in.Slug, msgSlug)
	c.url("websiteUrl", &in.WebsiteURL, msgWebsiteURL)
	c.optionalURL("screenshotUrl", in.ScreenshotURL, msgURL)
	c.optionalURL("faviconUrl", in.FaviconURL, msgURL)
	c.optionalEmail("submitterEmail", in.SubmitterEmail, msgEmail)
	c.present("categoryId", in.CategoryID, "categoryId must not be empty")
	c.present("alternativeId", in.AlternativeID, "alternativeId must not be empty")
	return c.err()
}

func UpdateTool(p *model.ToolPatch) error {
	var c checker
	c.present("name", p.Name, msgName)
	c.present("slug", p.Slug, msgSlug)
	c.optionalURL("websiteUrl", p.WebsiteURL, msgWebsiteURL)
	c.optionalURL("screenshotUrl", p.ScreenshotURL, msgURL)
	c.optionalURL("faviconUrl", p.FaviconURL, msgURL)
	c.optionalEmail("submitterEmail", p.SubmitterEmail, msgEmail)
	c.present("categoryId", p.CategoryID, "categoryId must not be empty")
	if p.PageViews != nil && *p.PageViews < 0 {
		c.add("pageViews", "pageViews must be greater than or equal to 0")
	}
	return c.err()
}

func CreateImage(in *model.NewImage) error {
	var c checker
	c.url("url", &in.URL, msgURL)
	c.optionalURL("thumbnailUrl", in.ThumbnailURL, msgURL)
	if in.Size != nil && *in.Size < 0 {
		c.add("size", "size must be greater than or equal to 0")
	}
	return c.err()
}

func UpdateImage(p *model.ImagePatch) error {
	var c checker
	c.optionalURL("url", p.URL, msgURL)
	c.optionalURL("thumbnailUrl", p.ThumbnailURL, msgURL)
	if p.Size != nil && *p.Size < 0 {
		c.add("size", "size must be greater than or equal to 0")
	}
	return c.err()
}
