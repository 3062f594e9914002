package courseValidator

import (
	"coursehub/middleware"
	"coursehub/validators"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func init() {
	_ = validators.Validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	_ = validators.Validate.RegisterTranslation("slug", validators.Translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " may contain only lowercase letters, digits and single dashes"
		})
}

// CourseInput is the body of course create and edit requests.
type CourseInput struct {
	Title            string `json:"title" validate:"required,min=3,max=100"`
	Slug             string `json:"slug" validate:"omitempty,max=191,slug"`
	Description      string `json:"description" validate:"required,min=3"`
	SmallDescription string `json:"small_description" validate:"required,min=3,max=200"`
	FileKey          string `json:"file_key" validate:"required"`
	Price            int    `json:"price" validate:"min=0"`
	Duration         int    `json:"duration" validate:"min=0,max=500"`
	Level            string `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Category         string `json:"category" validate:"required"`
	Status           string `json:"status" validate:"omitempty,oneof=Draft Published Archived"`
}

// ListQuery is the paging query of course listings.
type ListQuery struct {
	Page     int    `query:"page" validate:"min=1"`
	Limit    int    `query:"limit" validate:"min=1,max=100"`
	Search   string `query:"search" validate:"max=100"`
	Category string `query:"category"`
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.Limit }

var paramLabels = map[string]string{
	"id":         "Course ID",
	"course_id":  "Course ID",
	"chapter_id": "Chapter ID",
	"lesson_id":  "Lesson ID",
}

var paramLocals = map[string]string{
	"id":         "courseID",
	"course_id":  "courseID",
	"chapter_id": "chapterID",
	"lesson_id":  "lessonID",
}

// Params parses the named numeric path parameters into c.Locals as uint.
func Params(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			id, ok := validators.ParamID(c, name)
			if !ok {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+paramLabels[name]+"!", nil)
			}
			c.Locals(paramLocals[name], id)
		}
		return c.Next()
	}
}

func parseCourse(c *fiber.Ctx) (*CourseInput, map[string]string, error) {
	reqData := new(CourseInput)
	if err := c.BodyParser(reqData); err != nil {
		return nil, nil, err
	}
	reqData.Title = strings.TrimSpace(reqData.Title)
	reqData.Slug = strings.ToLower(strings.TrimSpace(reqData.Slug))
	reqData.Description = strings.TrimSpace(reqData.Description)
	reqData.SmallDescription = strings.TrimSpace(reqData.SmallDescription)
	reqData.Category = strings.TrimSpace(reqData.Category)
	return reqData, validators.Struct(reqData), nil
}

// CreateCourse validates a course creation request
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData, errors, err := parseCourse(c)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// UpdateCourse validates a course edit request; the full course is sent.
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validators.ParamID(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}
		reqData, errors, err := parseCourse(c)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("courseID", id)
		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// CourseList validates paging parameters, defaulting to page 1 of 10.
func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := &ListQuery{Page: 1, Limit: 10}
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Search = strings.TrimSpace(reqData.Search)
		if errors := validators.Struct(reqData); len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedList", reqData)
		return c.Next()
	}
}

// Slug validates the public course slug path parameter.
func Slug() fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := strings.ToLower(strings.TrimSpace(c.Params("slug")))
		if !slugPattern.MatchString(slug) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course slug!", nil)
		}
		c.Locals("slug", slug)
		return c.Next()
	}
}
