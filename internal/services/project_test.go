package services

import (
	"net/http"
	"strings"
	"testing"

	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)

	project, err := svc.Create(&CreateProjectRequest{Title: "  Ocean Study ", Description: "<script>x</script>"})
	require.NoError(t, err)
	assert.Equal(t, "Ocean Study", project.Title)
	assert.Equal(t, "&lt;script&gt;x&lt;/script&gt;", project.Description)
	assert.NotNil(t, project.Media)
	assert.Empty(t, project.Media)

	media, err := svc.AddMedia(project.ID, &AddMediaRequest{Type: models.MediaTypeImage, URL: "/uploads/images/a.jpg", Filename: "a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, project.ID, media.ProjectID)

	got, err := svc.GetByID(project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ocean Study", got.Title)
	require.Len(t, got.Media, 1)
	assert.Equal(t, "a.jpg", got.Media[0].Filename)
	assert.Equal(t, models.MediaTypeImage, got.Media[0].Type)

	_, err = svc.GetByID(project.ID + 100)
	requireAppError(t, err, http.StatusNotFound, response.CodeNotFound)
}

func TestProjectService_CreateRequiresTitle(t *testing.T) {
	svc := NewProjectService(setupTestDB(t))
	_, err := svc.Create(&CreateProjectRequest{Title: "   "})
	appErr := requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "title", appErr.Fields[0].Field)
}

func TestProjectService_ListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)

	older, err := svc.Create(&CreateProjectRequest{Title: "older"})
	require.NoError(t, err)
	newer, err := svc.Create(&CreateProjectRequest{Title: "newer"})
	require.NoError(t, err)
	_, err = svc.AddMedia(older.ID, &AddMediaRequest{Type: models.MediaTypeDoc, URL: "/u/1.pdf", Filename: "1.pdf"})
	require.NoError(t, err)
	_, err = svc.AddMedia(older.ID, &AddMediaRequest{Type: models.MediaTypeVideo, URL: "/u/2.mp4", Filename: "2.mp4"})
	require.NoError(t, err)

	projects, err := svc.List()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, newer.ID, projects[0].ID)
	assert.NotNil(t, projects[0].Media)
	assert.Empty(t, projects[0].Media)
	require.Len(t, projects[1].Media, 2)
	assert.Equal(t, "1.pdf", projects[1].Media[0].Filename)
	assert.Equal(t, "2.mp4", projects[1].Media[1].Filename)
}

func TestProjectService_Update(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	project, err := svc.Create(&CreateProjectRequest{Title: "draft", Description: "keep me"})
	require.NoError(t, err)

	updated, err := svc.Update(project.ID, &UpdateProjectRequest{Title: strPtr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.False(t, updated.UpdatedAt.Before(project.UpdatedAt))

	_, err = svc.Update(project.ID, &UpdateProjectRequest{})
	requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)

	_, err = svc.Update(project.ID, &UpdateProjectRequest{Title: strPtr("")})
	requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)

	_, err = svc.Update(project.ID+1, &UpdateProjectRequest{Title: strPtr("ghost")})
	requireAppError(t, err, http.StatusNotFound, response.CodeNotFound)
}

func TestProjectService_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	svc := NewProjectService(db)
	project, err := svc.Create(&CreateProjectRequest{Title: "doomed"})
	require.NoError(t, err)

	_, err = svc.AddMedia(project.ID, &AddMediaRequest{Type: models.MediaTypeImage, URL: "/u/a.jpg", Filename: "a.jpg"})
	require.NoError(t, err)
	_, err = NewCommentService(db).Create(alice.ID, &CreateCommentRequest{ProjectID: project.ID, Text: "nice"})
	require.NoError(t, err)
	_, err = NewLikeService(db).Toggle(alice.ID, project.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(project.ID))

	for _, model := range []interface{}{&models.ProjectMedia{}, &models.ProjectComment{}, &models.ProjectLike{}} {
		var n int64
		require.NoError(t, db.Model(model).Where("project_id = ?", project.ID).Count(&n).Error)
		assert.Zero(t, n, "%T rows left behind", model)
	}

	err = svc.Delete(project.ID)
	requireAppError(t, err, http.StatusNotFound, response.CodeNotFound)
}

func TestProjectService_AddMedia_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	project := createProject(t, db, "media")

	_, err := svc.AddMedia(project.ID, &AddMediaRequest{Type: "audio", URL: "/u/a.mp3", Filename: "a.mp3"})
	requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)

	_, err = svc.AddMedia(project.ID, &AddMediaRequest{Type: models.MediaTypeDoc, URL: "", Filename: "a.pdf"})
	requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)

	_, err = svc.AddMedia(project.ID+50, &AddMediaRequest{Type: models.MediaTypeDoc, URL: "/u/a.pdf", Filename: "a.pdf"})
	requireAppError(t, err, http.StatusNotFound, response.CodeNotFound)
}

func TestProjectService_DeleteMedia(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	first := createProject(t, db, "first")
	second := createProject(t, db, "second")

	media, err := svc.AddMedia(first.ID, &AddMediaRequest{Type: models.MediaTypeImage, URL: "/u/a.jpg", Filename: "a.jpg"})
	require.NoError(t, err)

	err = svc.DeleteMedia(second.ID, media.ID)
	requireAppError(t, err, http.StatusNotFound, response.CodeNotFound)

	require.NoError(t, svc.DeleteMedia(first.ID, media.ID))
	got, err := svc.GetByID(first.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Media)
}

func TestProjectService_TitleLengthCountsEscapedText(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)

	// "&" is stored as "&amp;"
	_, err := svc.Create(&CreateProjectRequest{Title: strings.Repeat("&", 52)})
	appErr := requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "title", appErr.Fields[0].Field)
	assert.Equal(t, "max", appErr.Fields[0].Rule)

	project, err := svc.Create(&CreateProjectRequest{Title: strings.Repeat("&", 51)})
	require.NoError(t, err)
	assert.Len(t, project.Title, 255)

	long := strings.Repeat("<", 70)
	_, err = svc.Update(project.ID, &UpdateProjectRequest{Title: &long})
	requireAppError(t, err, http.StatusBadRequest, response.CodeValidation)

	got, err := svc.GetByID(project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.Title, got.Title)
}

func TestProjectService_AddMediaReturnsStoredRow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewProjectService(db)
	project := createProject(t, db, "media")

	thumb := "/uploads/thumbnails/a.jpg"
	media, err := svc.AddMedia(project.ID, &AddMediaRequest{
		Type: models.MediaTypeImage, URL: "/uploads/images/a.jpg", Filename: "a.jpg", ThumbnailURL: &thumb,
	})
	require.NoError(t, err)

	var stored models.ProjectMedia
	require.NoError(t, db.First(&stored, media.ID).Error)
	assert.Equal(t, stored, *media)
	assert.False(t, media.CreatedAt.IsZero())
	require.NotNil(t, media.ThumbnailURL)
	assert.Equal(t, thumb, *media.ThumbnailURL)
}
