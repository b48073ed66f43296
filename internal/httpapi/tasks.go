package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	restful "github.com/emicklei/go-restful/v3"

	"github.com/nibzard/checklist-go/internal/todo"
)

// TaskView is a task as returned by the API.
type TaskView struct {
	Index    int    `json:"index"`
	Position int    `json:"position"`
	Task     string `json:"task"`
	Done     bool   `json:"done"`
	Priority string `json:"priority"`
	Due      string `json:"due,omitempty"`
}

// TaskList is the body of a list response, in display order.
type TaskList struct {
	User        string     `json:"user"`
	Tasks       []TaskView `json:"tasks"`
	Quarantined int        `json:"quarantined"`
}

// TaskInput is the body of create and update requests.
type TaskInput struct {
	Task     string `json:"task"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date,omitempty"`
	DueTime  string `json:"due_time,omitempty"`
}

// RepairResult is the body of a repair response.
type RepairResult struct {
	Removed int `json:"removed"`
}

// ErrorBody is returned with every non-2xx status.
type ErrorBody struct {
	Error string `json:"error"`
}

func (s *Server) tasksService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/v1/users").Produces(restful.MIME_JSON)

	user := ws.PathParameter("user", "user id").DataType("string")
	index := ws.PathParameter("index", "stored 0-based task index").DataType("integer")
	position := ws.PathParameter("position", "1-based task position").DataType("integer")

	ws.Route(ws.GET("/{user}/tasks").To(s.listTasks).
		Doc("list a user's tasks in display order").
		Param(user).
		Writes(TaskList{}))

	ws.Route(ws.POST("/{user}/tasks").To(s.addTask).
		Doc("append a task").
		Consumes(restful.MIME_JSON).
		Param(user).
		Reads(TaskInput{}).
		Writes(TaskView{}))

	ws.Route(ws.PUT("/{user}/tasks/{position}").To(s.editTask).
		Doc("replace a task; omitting due_date and due_time clears the due value").
		Consumes(restful.MIME_JSON).
		Param(user).Param(position).
		Reads(TaskInput{}).
		Writes(TaskView{}))

	ws.Route(ws.POST("/{user}/tasks/{index}/toggle").To(s.toggleTask).
		Doc("flip a task's done flag").
		Param(user).Param(index).
		Writes(TaskView{}))

	ws.Route(ws.DELETE("/{user}/tasks/{index}").To(s.deleteTask).
		Doc("remove a task").
		Param(user).Param(index).
		Writes(TaskView{}))

	ws.Route(ws.POST("/{user}/repair").To(s.repair).
		Doc("drop entries that failed validation").
		Param(user).
		Writes(RepairResult{}))

	return ws
}

func (s *Server) listTasks(req *restful.Request, resp *restful.Response) {
	userID := req.PathParameter("user")
	entries := todo.Sorted(s.store.Tasks(userID))

	list := TaskList{
		User:        userID,
		Tasks:       make([]TaskView, len(entries)),
		Quarantined: s.store.Quarantined(userID),
	}
	for i, e := range entries {
		list.Tasks[i] = taskView(e)
	}
	s.metrics.CommandHandled("view", true)
	s.write(resp, http.StatusOK, list)
}

func (s *Server) addTask(req *restful.Request, resp *restful.Response) {
	userID := req.PathParameter("user")

	var in TaskInput
	if err := req.ReadEntity(&in); err != nil {
		s.fail(resp, "add", http.StatusBadRequest, err)
		return
	}
	due, err := todo.JoinDue(in.DueDate, in.DueTime)
	if err != nil {
		s.failStore(resp, "add", userID, err)
		return
	}
	task := todo.Task{Task: in.Task, Priority: in.Priority, Due: due}
	added, err := s.store.Add(userID, task)
	if err != nil {
		s.failStore(resp, "add", userID, err)
		return
	}
	s.metrics.CommandHandled("add", true)
	s.write(resp, http.StatusCreated, taskView(added))
}

func (s *Server) editTask(req *restful.Request, resp *restful.Response) {
	userID := req.PathParameter("user")
	position, err := strconv.Atoi(req.PathParameter("position"))
	if err != nil {
		s.failStore(resp, "edit", userID, todo.ErrInvalidIndex)
		return
	}

	var in TaskInput
	if err := req.ReadEntity(&in); err != nil {
		s.fail(resp, "edit", http.StatusBadRequest, err)
		return
	}
	due, dueErr := todo.JoinDue(in.DueDate, in.DueTime)
	if dueErr != nil {
		if n := len(s.store.Tasks(userID)); position < 1 || position > n {
			dueErr = todo.ErrInvalidIndex
		}
		s.failStore(resp, "edit", userID, dueErr)
		return
	}

	task, err := s.store.Edit(userID, position, todo.Edit{Task: in.Task, Priority: in.Priority, Due: due})
	if err != nil {
		s.failStore(resp, "edit", userID, err)
		return
	}
	s.metrics.CommandHandled("edit", true)
	s.write(resp, http.StatusOK, taskView(todo.Entry{Index: position - 1, Task: task}))
}

func (s *Server) toggleTask(req *restful.Request, resp *restful.Response) {
	s.indexed(req, resp, "toggle", s.store.Toggle)
}

func (s *Server) deleteTask(req *restful.Request, resp *restful.Response) {
	s.indexed(req, resp, "delete", s.store.Delete)
}

func (s *Server) indexed(req *restful.Request, resp *restful.Response, name string, op func(string, int) (todo.Task, error)) {
	userID := req.PathParameter("user")
	index, err := strconv.Atoi(req.PathParameter("index"))
	if err != nil {
		s.failStore(resp, name, userID, todo.ErrInvalidIndex)
		return
	}
	task, err := op(userID, index)
	if err != nil {
		s.failStore(resp, name, userID, err)
		return
	}
	s.metrics.CommandHandled(name, true)
	s.write(resp, http.StatusOK, taskView(todo.Entry{Index: index, Task: task}))
}

func (s *Server) repair(req *restful.Request, resp *restful.Response) {
	userID := req.PathParameter("user")
	removed, err := s.store.Repair(userID)
	if err != nil {
		s.failStore(resp, "repair", userID, err)
		return
	}
	s.metrics.CommandHandled("repair", true)
	s.write(resp, http.StatusOK, RepairResult{Removed: removed})
}

func taskView(e todo.Entry) TaskView {
	return TaskView{
		Index:    e.Index,
		Position: e.Position(),
		Task:     e.Task.Task,
		Done:     e.Task.Done,
		Priority: e.Task.Priority,
		Due:      e.Task.Due,
	}
}

// failStore maps store errors to HTTP statuses.
func (s *Server) failStore(resp *restful.Response, name, userID string, err error) {
	switch {
	case errors.Is(err, todo.ErrInvalidIndex):
		s.fail(resp, name, http.StatusNotFound, err)
	case errors.Is(err, todo.ErrInvalidDue), errors.Is(err, todo.ErrEmptyTask):
		s.fail(resp, name, http.StatusBadRequest, err)
	default:
		s.logger.Error("api request failed", "command", name, "user", userID, "err", err)
		s.fail(resp, name, http.StatusInternalServerError, errors.New("could not save checklist"))
	}
}

func (s *Server) fail(resp *restful.Response, name string, status int, err error) {
	s.metrics.CommandHandled(name, false)
	s.write(resp, status, ErrorBody{Error: err.Error()})
}

func (s *Server) write(resp *restful.Response, status int, body any) {
	if err := resp.WriteHeaderAndEntity(status, body); err != nil {
		s.logger.Warn("write response failed", "err", err)
	}
}
