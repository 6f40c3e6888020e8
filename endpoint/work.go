package endpoint

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/middleware"
	"github.com/nathasitm/portfolio-backend/model"
	"github.com/nathasitm/portfolio-backend/util"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func marshalTech(tech []string) (datatypes.JSON, error) {
	if tech == nil {
		tech = []string{}
	}
	b, err := json.Marshal(tech)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

type WorkRequest struct {
	Title       string   `json:"title" binding:"required" example:"Showreel 2025"`
	Description string   `json:"description"`
	Category    string   `json:"category" example:"Graphic Design"`
	Type        string   `json:"type" binding:"required" example:"Video"`
	VideoURL    string   `json:"video_url"`
	ImageURL    string   `json:"image_url"`
	Tech        []string `json:"tech"`
	AspectRatio string   `json:"aspect_ratio" example:"16/9"`
}

type ReorderRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

// orderedWorks applies the display ordering: explicit sort_order ascending,
// entries without one after all ordered entries, newest-first as tiebreaker.
func orderedWorks(db *gorm.DB) *gorm.DB {
	return db.Order("CASE WHEN sort_order IS NULL THEN 1 ELSE 0 END").
		Order("sort_order asc").
		Order("created_at desc")
}

func fetchWorks(db *gorm.DB, workType string) ([]model.Work, error) {
	var works []model.Work
	query := db.Model(&model.Work{})
	if workType != "" {
		query = query.Where("type = ?", workType)
	}
	if err := orderedWorks(query).Find(&works).Error; err != nil {
		return nil, err
	}
	return works, nil
}

// ListWorks godoc
// @Summary      List portfolio works
// @Description  List works, optionally filtered by type, in display order
// @Tags         Works
// @Produce      json
// @Param        type query string false "Work type filter (Video, Graphic)"
// @Success      200 {object} util.APIResponse{data=[]model.Work} "Works"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /work [get]
func ListWorks(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	works, err := fetchWorks(db, c.Query("type"))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to fetch works", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Works fetched",
		Data: works,
	})
}

func applyWorkRequest(work *model.Work, req WorkRequest) error {
	work.Title = util.NormalizeName(req.Title)
	work.Description = req.Description
	work.Category = req.Category
	if work.Category == "" {
		work.Category = "Graphic Design"
	}
	work.Type = req.Type
	work.VideoURL = req.VideoURL
	work.ImageURL = req.ImageURL
	work.AspectRatio = req.AspectRatio

	tech, err := marshalTech(req.Tech)
	if err != nil {
		return err
	}
	work.Tech = tech
	return nil
}

func validateWorkRequest(c *gin.Context, req WorkRequest) bool {
	switch req.Type {
	case "Video":
		if req.VideoURL == "" {
			util.CallUserError(c, util.APIErrorParams{Msg: "Video works require a video URL", Err: fmt.Errorf("video_url is empty")})
			return false
		}
	case "Graphic":
		if req.ImageURL == "" {
			util.CallUserError(c, util.APIErrorParams{Msg: "Graphic works require an image URL", Err: fmt.Errorf("image_url is empty")})
			return false
		}
	default:
		util.CallUserError(c, util.APIErrorParams{Msg: "Unknown work type", Err: fmt.Errorf("type must be Video or Graphic")})
		return false
	}
	return true
}

// CreateWork godoc
// @Summary      Create a portfolio work
// @Tags         Works
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body WorkRequest true "Work payload"
// @Success      200 {object} util.APIResponse{data=model.Work} "Work created"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /work [post]
func CreateWork(c *gin.Context) {
	var req WorkRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !validateWorkRequest(c, req) {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var work model.Work
	if err := applyWorkRequest(&work, req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid tech list", Err: err})
		return
	}

	if err := db.Create(&work).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create work", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Work created", Data: work})
}

func loadWorkOrRespond(c *gin.Context, db *gorm.DB) (model.Work, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid work id", Err: err})
		return model.Work{}, false
	}

	var work model.Work
	if err := db.First(&work, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Work not found", Err: err})
			return model.Work{}, false
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load work", Err: err})
		return model.Work{}, false
	}
	return work, true
}

// UpdateWork godoc
// @Summary      Update a portfolio work
// @Tags         Works
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Work ID"
// @Param        request body WorkRequest true "Work payload"
// @Success      200 {object} util.APIResponse{data=model.Work} "Work updated"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      404 {object} util.APIResponse "Work not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /work/{id} [patch]
func UpdateWork(c *gin.Context) {
	var req WorkRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !validateWorkRequest(c, req) {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	work, ok := loadWorkOrRespond(c, db)
	if !ok {
		return
	}

	if err := applyWorkRequest(&work, req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid tech list", Err: err})
		return
	}

	if err := db.Save(&work).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update work", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Work updated", Data: work})
}

// DeleteWork godoc
// @Summary      Delete a portfolio work
// @Tags         Works
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Work ID"
// @Success      200 {object} util.APIResponse "Work deleted"
// @Failure      404 {object} util.APIResponse "Work not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /work/{id} [delete]
func DeleteWork(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	work, ok := loadWorkOrRespond(c, db)
	if !ok {
		return
	}

	if err := db.Delete(&work).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete work", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Work deleted"})
}

// ReorderWorks godoc
// @Summary      Persist a new display order
// @Description  Assigns ascending sort positions following the submitted id list
// @Tags         Works
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body ReorderRequest true "Ordered work ids"
// @Success      200 {object} util.APIResponse "Order saved"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /work/reorder [put]
func ReorderWorks(c *gin.Context) {
	var req ReorderRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for idx, id := range req.IDs {
			position := idx
			if err := tx.Model(&model.Work{}).Where("id = ?", id).Update("sort_order", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to save order", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Order saved"})
}
