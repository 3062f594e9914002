package controllers

import (
	"coursehub/middleware"
	"coursehub/services/structure"
	courseValidator "coursehub/validators/course"

	"github.com/gofiber/fiber/v2"
)

func lessonInput(in *courseValidator.LessonInput) structure.LessonInput {
	return structure.LessonInput{
		Title:        in.Title,
		Description:  in.Description,
		ThumbnailKey: in.ThumbnailKey,
		VideoKey:     in.VideoKey,
	}
}

// AdminAddChapter appends a chapter to the course
func AdminAddChapter(c *fiber.Ctx) error {
	reqData := c.Locals("validatedChapter").(*courseValidator.ChapterInput)
	chapter, res := Structure.AddChapter(c.UserContext(), middleware.ActorFrom(c), c.Locals("courseID").(uint), reqData.Title)
	return middleware.ResultResponse(c, res, fiber.StatusCreated, chapter)
}

// AdminRenameChapter changes a chapter's title
func AdminRenameChapter(c *fiber.Ctx) error {
	reqData := c.Locals("validatedChapter").(*courseValidator.ChapterInput)
	res := Structure.RenameChapter(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), c.Locals("chapterID").(uint), reqData.Title)
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}

// AdminDeleteChapter deletes a chapter with its lessons and closes the gap
func AdminDeleteChapter(c *fiber.Ctx) error {
	res := Structure.DeleteChapter(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), c.Locals("chapterID").(uint))
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}

// AdminReorderChapters applies client-planned chapter positions
func AdminReorderChapters(c *fiber.Ctx) error {
	reqData := c.Locals("validatedReorder").(*courseValidator.ReorderRequest)
	res := Structure.ReorderChapters(c.UserContext(), middleware.ActorFrom(c), c.Locals("courseID").(uint), reqData.Items)
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}

// AdminMoveChapter moves a chapter onto another chapter's position
func AdminMoveChapter(c *fiber.Ctx) error {
	reqData := c.Locals("validatedMove").(*courseValidator.MoveRequest)
	res := Structure.MoveChapter(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), reqData.SourceID, reqData.TargetID)
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}

// AdminAddLesson appends a lesson to a chapter
func AdminAddLesson(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLesson").(*courseValidator.LessonInput)
	lesson, res := Structure.AddLesson(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), c.Locals("chapterID").(uint), lessonInput(reqData))
	return middleware.ResultResponse(c, res, fiber.StatusCreated, lesson)
}

// AdminGetLesson returns one lesson of a chapter for editing
func AdminGetLesson(c *fiber.Ctx) error {
	lesson, res := Structure.Lesson(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), c.Locals("chapterID").(uint), c.Locals("lessonID").(uint))
	return middleware.ResultResponse(c, res, fiber.StatusOK, lesson)
}

// AdminUpdateLesson changes a lesson's content; its position is unchanged
func AdminUpdateLesson(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLesson").(*courseValidator.LessonInput)
	res := Structure.UpdateLesson(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), c.Locals("chapterID").(uint), c.Locals("lessonID").(uint), lessonInput(reqData))
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}

// AdminDeleteLesson deletes a lesson and closes the gap in its chapter
func AdminDeleteLesson(c *fiber.Ctx) error {
	res := Structure.DeleteLesson(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), c.Locals("chapterID").(uint), c.Locals("lessonID").(uint))
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}

// AdminReorderLessons applies client-planned lesson positions within one chapter
func AdminReorderLessons(c *fiber.Ctx) error {
	reqData := c.Locals("validatedReorder").(*courseValidator.ReorderRequest)
	res := Structure.ReorderLessons(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), c.Locals("chapterID").(uint), reqData.Items)
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}

// AdminMoveLesson moves a lesson onto another lesson of the same chapter
func AdminMoveLesson(c *fiber.Ctx) error {
	reqData := c.Locals("validatedMove").(*courseValidator.MoveRequest)
	res := Structure.MoveLesson(c.UserContext(), middleware.ActorFrom(c),
		c.Locals("courseID").(uint), reqData.SourceID, reqData.TargetID)
	return middleware.ResultResponse(c, res, fiber.StatusOK, nil)
}
