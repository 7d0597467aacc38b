package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
)

// RevisionHeader carries the workspace revision a response was produced at.
const RevisionHeader = "X-Workspace-Revision"

const maxBodyBytes = 4 << 20

func setRevision(c *gin.Context, revision int64) {
	c.Header(RevisionHeader, strconv.FormatInt(revision, 10))
}

// indexParam reads a zero-based path index. Negative or non-numeric values
// are rejected as validation errors; range checks belong to the service.
func indexParam(c *gin.Context, name string) (int, error) {
	raw := c.Param(name)
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return value, nil
}

func indexParams(c *gin.Context, names ...string) ([]int, error) {
	values := make([]int, len(names))
	for i, name := range names {
		value, err := indexParam(c, name)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func bindJSON(c *gin.Context, dest any, message string) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
	}
	return nil
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read request body")
	}
	return body, nil
}
