package handler

import "github.com/gin-gonic/gin"

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Setup    *SetupHandler
	Grading  *GradingHandler
	Snapshot *SnapshotHandler
	Export   *ExportHandler
	Metrics  *MetricsHandler
}

// RegisterRoutes mounts the API on api. Handlers left nil are skipped.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	if h.Setup != nil {
		setup := api.Group("/setup")
		setup.GET("", h.Setup.Get)
		setup.PUT("", h.Setup.Replace)
		setup.POST("/validate", h.Setup.Validate)
		setup.POST("/apply", h.Setup.Apply)
	}

	if h.Grading != nil {
		api.PUT("/workspace/view", h.Grading.SetView)

		grading := api.Group("/grading")
		grading.GET("", h.Grading.Get)
		grading.DELETE("/data", h.Grading.ClearData)
		grading.GET("/summary", h.Grading.Summary)
		grading.PUT("/note", h.Grading.SetNote)
		grading.PUT("/active-class", h.Grading.SetActiveClass)

		classes := grading.Group("/classes")
		classes.POST("", h.Grading.AddClass)
		classes.PATCH("/:class", h.Grading.UpdateClass)
		classes.DELETE("/:class", h.Grading.RemoveClass)
		classes.GET("/:class/summary", h.Grading.ClassSummary)
		classes.PUT("/:class/section-order", h.Grading.ReorderSections)
		classes.PUT("/:class/selected-student", h.Grading.SelectStudent)
		classes.POST("/:class/students", h.Grading.AddStudent)
		classes.PATCH("/:class/students/:student", h.Grading.UpdateStudent)
		classes.DELETE("/:class/students/:student", h.Grading.RemoveStudent)
		classes.PUT("/:class/students/:student/sections/:section", h.Grading.SetSectionEntry)
		classes.PUT("/:class/students/:student/sections/:section/slots/:slot", h.Grading.SetSlotEntry)

		sections := grading.Group("/sections")
		sections.PATCH("/:section", h.Grading.RenameSection)
		sections.PATCH("/:section/items/:slot", h.Grading.RenameItem)
		sections.POST("/:section/slots", h.Grading.AddSlot)
		sections.DELETE("/:section/slots", h.Grading.RemoveSlot)
	}

	if h.Snapshot != nil {
		api.GET("/snapshot", h.Snapshot.Export)
		api.POST("/snapshot", h.Snapshot.Import)
		api.POST("/snapshot/save", h.Snapshot.Save)
	}

	if h.Export != nil {
		exports := api.Group("/exports")
		exports.POST("", h.Export.Create)
		exports.GET("/classes/:class", h.Export.ClassReport)
		exports.GET("/classes/:class/students/:student", h.Export.StudentSheet)
		exports.GET("/download/:token", h.Export.Download)
	}

	if h.Metrics != nil {
		api.GET("/system/metrics", h.Metrics.System)
	}
}
