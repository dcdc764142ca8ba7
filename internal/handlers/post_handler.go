package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/yatube/backend/internal/feed"
	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/pkg/storage"
	"github.com/anonto42/yatube/backend/validators"
	"github.com/labstack/echo/v4"
)

const (
	postImageDir = "posts"

	errInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	errInvalidGroup = "Select a valid choice. That choice is not one of the available choices."
)

// PostHandler serves the post listings, post pages and the post and
// comment forms.
type PostHandler struct {
	feed              *feed.Service
	postRepository    repositories.PostRepository
	groupRepository   repositories.GroupRepository
	commentRepository repositories.CommentRepository
	media             storage.Store
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	feedService *feed.Service,
	postRepo repositories.PostRepository,
	groupRepo repositories.GroupRepository,
	commentRepo repositories.CommentRepository,
	media storage.Store,
) *PostHandler {
	return &PostHandler{
		feed:              feedService,
		postRepository:    postRepo,
		groupRepository:   groupRepo,
		commentRepository: commentRepo,
		media:             media,
	}
}

// RegisterPostRoutes registers post-related routes. indexCache wraps the
// global feed only.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, loginRequired, indexCache echo.MiddlewareFunc) {
	g.GET("/", h.Index, indexCache)
	g.GET("/group/:slug/", h.GroupPosts)
	g.GET("/posts/:post_id/", h.PostDetail)
	g.POST("/posts/:post_id/", h.AddComment, loginRequired)
	g.POST("/posts/:post_id/comment/", h.AddComment, loginRequired)
	g.GET("/create/", h.PostCreate, loginRequired)
	g.POST("/create/", h.PostCreate, loginRequired)
	g.GET("/posts/:post_id/edit/", h.PostEdit, loginRequired)
	g.POST("/posts/:post_id/edit/", h.PostEdit, loginRequired)
}

// Index renders the global feed
func (h *PostHandler) Index(c echo.Context) error {
	page, err := h.feed.Global(c.Request().Context(), pageNumber(c))
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "posts/index.html", echo.Map{"Page": page})
}

// GroupPosts renders the feed of one group
func (h *PostHandler) GroupPosts(c echo.Context) error {
	group, page, err := h.feed.Group(c.Request().Context(), c.Param("slug"), pageNumber(c))
	if err != nil {
		return httpError(err)
	}
	return c.Render(http.StatusOK, "posts/group_list.html", echo.Map{"Group": group, "Page": page})
}

// PostDetail renders a post with its comments
func (h *PostHandler) PostDetail(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}
	return h.renderDetail(c, post, models.CommentForm{}, nil)
}

// AddComment stores a comment by the signed-in user and goes back to the
// post. An invalid form re-renders the post page with the error.
func (h *PostHandler) AddComment(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}

	var form models.CommentForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form payload")
	}
	form.Text = strings.TrimSpace(form.Text)
	if err := c.Validate(&form); err != nil {
		return h.renderDetail(c, post, form, validators.FieldErrors(err))
	}

	comment := &models.Comment{
		Text:     form.Text,
		PostID:   post.ID,
		AuthorID: middleware.CurrentUser(c).ID,
	}
	if err := h.commentRepository.CreateComment(c.Request().Context(), comment); err != nil {
		return httpError(err)
	}
	return c.Redirect(http.StatusFound, detailURL(post.ID))
}

// PostCreate shows and processes the new post form
func (h *PostHandler) PostCreate(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if c.Request().Method != http.MethodPost {
		return h.renderForm(c, nil, models.PostForm{}, nil)
	}

	form, sub, errs, err := h.readPostForm(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, nil, form, errs)
	}

	post := &models.Post{Text: form.Text, AuthorID: user.ID, GroupID: sub.groupID}
	errs, err = h.writePost(c, post, sub.image, h.postRepository.CreatePost)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, nil, form, errs)
	}
	c.Logger().Infof("post %d created by %s", post.ID, user.Username)
	return c.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

// PostEdit shows and processes the edit form. Only the author may edit;
// anybody else is sent to the post page.
func (h *PostHandler) PostEdit(c echo.Context) error {
	post, err := h.loadPost(c)
	if err != nil {
		return err
	}
	if post.AuthorID != middleware.CurrentUser(c).ID {
		return c.Redirect(http.StatusFound, detailURL(post.ID))
	}

	if c.Request().Method != http.MethodPost {
		form := models.PostForm{Text: post.Text}
		if post.GroupID != nil {
			form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
		}
		return h.renderForm(c, post, form, nil)
	}

	form, sub, errs, err := h.readPostForm(c)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, post, form, errs)
	}

	post.Text = form.Text
	post.GroupID = sub.groupID
	errs, err = h.writePost(c, post, sub.image, h.postRepository.UpdatePost)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return h.renderForm(c, post, form, errs)
	}
	return c.Redirect(http.StatusFound, detailURL(post.ID))
}

func (h *PostHandler) loadPost(c echo.Context) (*models.Post, error) {
	id, err := idParam(c, "post_id")
	if err != nil {
		return nil, err
	}
	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return nil, httpError(err)
	}
	return post, nil
}

func (h *PostHandler) renderDetail(c echo.Context, post *models.Post, form models.CommentForm, errs map[string]string) error {
	ctx := c.Request().Context()
	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return err
	}
	authorPosts, err := h.postRepository.CountPosts(ctx, repositories.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return err
	}
	viewer := middleware.CurrentUser(c)
	return c.Render(http.StatusOK, "posts/post_detail.html", echo.Map{
		"Post":        post,
		"Comments":    comments,
		"AuthorPosts": authorPosts,
		"CanEdit":     viewer != nil && viewer.ID == post.AuthorID,
		"Form":        form,
		"Errors":      orEmpty(errs),
	})
}

func (h *PostHandler) renderForm(c echo.Context, post *models.Post, form models.PostForm, errs map[string]string) error {
	groups, err := h.groupRepository.GetGroups(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "posts/create_post.html", echo.Map{
		"IsEdit": post != nil,
		"Post":   post,
		"Form":   form,
		"Groups": groups,
		"Errors": orEmpty(errs),
	})
}

// submission is the part of a post form that needed more than binding
type submission struct {
	groupID *uint
	image   *multipart.FileHeader
}

// readPostForm binds and validates the post form. Field problems come back
// in errs; err is reserved for failures that abort the request.
func (h *PostHandler) readPostForm(c echo.Context) (models.PostForm, submission, map[string]string, error) {
	var (
		form models.PostForm
		sub  submission
	)
	if err := c.Bind(&form); err != nil {
		return form, sub, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form payload")
	}
	form.Text = strings.TrimSpace(form.Text)

	errs := map[string]string{}
	if err := c.Validate(&form); err != nil {
		errs = validators.FieldErrors(err)
	}

	if _, bad := errs["group"]; !bad && form.Group != "" {
		id, perr := strconv.ParseUint(form.Group, 10, 64)
		group, err := h.groupRepository.GetGroupByID(c.Request().Context(), uint(id))
		switch {
		case perr != nil || errors.Is(err, repositories.ErrNotFound):
			errs["group"] = errInvalidGroup
		case err != nil:
			return form, sub, nil, err
		default:
			sub.groupID = &group.ID
		}
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		if fh.Size > 0 || fh.Filename != "" {
			if ok, err := isImage(fh); err != nil {
				return form, sub, nil, err
			} else if !ok {
				errs["image"] = errInvalidImage
			} else {
				sub.image = fh
			}
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return form, sub, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid form payload").SetInternal(err)
	}

	return form, sub, errs, nil
}

// writePost stores the new image, if any, then runs write. When write fails
// the image is removed again and post keeps its previous one. A group that
// disappeared after the form was checked is reported as a field error.
func (h *PostHandler) writePost(
	c echo.Context,
	post *models.Post,
	image *multipart.FileHeader,
	write func(context.Context, *models.Post) error,
) (map[string]string, error) {
	ctx := c.Request().Context()
	previous := post.Image
	if image != nil {
		stored, err := h.saveImage(c, image)
		if err != nil {
			return nil, err
		}
		post.Image = stored
	}

	err := write(ctx, post)
	if err == nil {
		return nil, nil
	}
	if post.Image != previous {
		if derr := h.media.Delete(ctx, post.Image); derr != nil {
			c.Logger().Warnf("remove unused image %s: %v", post.Image, derr)
		}
		post.Image = previous
	}
	if errors.Is(err, repositories.ErrInvalidReference) && post.GroupID != nil {
		return map[string]string{"group": errInvalidGroup}, nil
	}
	return nil, httpError(err)
}

func (h *PostHandler) saveImage(c echo.Context, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	contentType, err := sniff(src)
	if err != nil {
		return "", err
	}
	stored, err := h.media.Save(c.Request().Context(), postImageDir, fh.Filename, contentType, src)
	if err != nil {
		return "", fmt.Errorf("store image %q: %w", fh.Filename, err)
	}
	return stored, nil
}

// isImage sniffs the upload; the declared content type is not trusted.
func isImage(fh *multipart.FileHeader) (bool, error) {
	src, err := fh.Open()
	if err != nil {
		return false, err
	}
	defer src.Close()
	contentType, err := sniff(src)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(contentType, "image/"), nil
}

// sniff detects the content type of r and rewinds it.
func sniff(r io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if n == 0 {
		return "application/octet-stream", nil
	}
	return http.DetectContentType(head[:n]), nil
}

func detailURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func orEmpty(errs map[string]string) map[string]string {
	if errs == nil {
		return map[string]string{}
	}
	return errs
}
