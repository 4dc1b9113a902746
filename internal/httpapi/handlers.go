package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/dayplan/pkg/types"
)

const healthTimeout = 2 * time.Second

var opMessages = map[types.Op]string{
	types.OpCreated:   "Task created successfully",
	types.OpRetrieved: "Task retrieved successfully",
	types.OpUpdated:   "Task updated successfully",
	types.OpToggled:   "Task completion toggled successfully",
	types.OpDeleted:   "Task deleted successfully",
	types.OpReordered: "Tasks reordered successfully",
}

func taskEnvelope(op types.Op, task *types.Task) envelope {
	env := envelope{Success: true, Message: opMessages[op]}
	if task != nil {
		env.Data = task
	}
	return env
}

func listTasks(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter, err := parseTaskFilter(c)
		if err != nil {
			return err
		}
		tasks, err := svc.List(c.Request().Context(), userID(c), filter)
		if err != nil {
			return err
		}
		if tasks == nil {
			tasks = []*types.Task{}
		}
		return c.JSON(http.StatusOK, dataResponse{Data: tasks})
	}
}

func taskDates(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, err := parseLimit(c)
		if err != nil {
			return err
		}
		dates, err := svc.Dates(c.Request().Context(), userID(c), limit)
		if err != nil {
			return err
		}
		if dates == nil {
			dates = []types.DateCount{}
		}
		return c.JSON(http.StatusOK, dataResponse{Data: dates})
	}
}

func createTask(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		in := types.NewTask{Statement: req.Statement, TaskDate: req.TaskDate}
		if req.IsCompleted != nil {
			in.IsCompleted = *req.IsCompleted
		}
		task, err := svc.Create(c.Request().Context(), userID(c), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, taskEnvelope(types.OpCreated, task))
	}
}

func getTask(svc TaskService, hide bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := svc.Get(c.Request().Context(), userID(c), c.Param("id"))
		if err != nil {
			return hideForeign(hide, err)
		}
		return c.JSON(http.StatusOK, taskEnvelope(types.OpRetrieved, task))
	}
}

func updateTask(svc TaskService, hide bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.TaskDate != nil {
			return types.Invalid("task_date", types.ErrImmutableField)
		}
		patch := types.TaskPatch{Statement: req.Statement, IsCompleted: req.IsCompleted}
		task, err := svc.Update(c.Request().Context(), userID(c), c.Param("id"), patch)
		if err != nil {
			return hideForeign(hide, err)
		}
		return c.JSON(http.StatusOK, taskEnvelope(types.OpUpdated, task))
	}
}

func toggleTask(svc TaskService, hide bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := svc.Toggle(c.Request().Context(), userID(c), c.Param("id"))
		if err != nil {
			return hideForeign(hide, err)
		}
		return c.JSON(http.StatusOK, taskEnvelope(types.OpToggled, task))
	}
}

func deleteTask(svc TaskService, hide bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.Delete(c.Request().Context(), userID(c), c.Param("id")); err != nil {
			return hideForeign(hide, err)
		}
		return c.JSON(http.StatusOK, taskEnvelope(types.OpDeleted, nil))
	}
}

func reorderTasks(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req reorderRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if err := svc.Reorder(c.Request().Context(), userID(c), req.Date, req.TaskIDs); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: opMessages[types.OpReordered]})
	}
}

func currentUser() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, userResponse{ID: userID(c)})
	}
}

func logout(authn Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := authn.Logout(c.Request().Context(), identity(c)); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
	}
}

func healthz(db Pinger, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db == nil {
			return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			if logger != nil {
				logger.WithError(err).Warn("health check failed")
			}
			return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		}
		return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
	}
}
