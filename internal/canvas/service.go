package canvas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/buildwise/buildwise/backend-go/internal/domain"
	"github.com/buildwise/buildwise/backend-go/internal/project"
	"github.com/buildwise/buildwise/backend-go/internal/typeid"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidType     = errors.New("unknown object type")
	ErrInvalidViewport = errors.New("viewport scale must be positive")
)

// ActiveCounter reports how many users are currently active on a canvas.
// Implemented by the presence service.
type ActiveCounter interface {
	CountActive(ctx context.Context, canvasID string) (int, error)
}

// Service owns the authoritative persisted snapshot of each canvas: the
// fine-grained object/area operations and the bulk save/load pair. Every
// operation checks project ownership before touching state.
type Service struct {
	db       *gorm.DB
	projects *project.Service
	active   ActiveCounter
}

func NewService(db *gorm.DB, projects *project.Service, active ActiveCounter) *Service {
	return &Service{db: db, projects: projects, active: active}
}

// GetOrCreate returns the project's canvas, creating it on first access.
func (s *Service) GetOrCreate(ctx context.Context, projectID, userID string) (*domain.Canvas, error) {
	if err := s.checkProjectOwner(ctx, projectID, userID); err != nil {
		return nil, err
	}

	var c domain.Canvas
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get canvas: %w", err)
	}

	c = domain.Canvas{
		ID:            typeid.NewCanvasID(),
		ProjectID:     projectID,
		Name:          domain.DefaultCanvasName,
		ViewportScale: 1.0,
		CreatedBy:     userID,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}
	return &c, nil
}

// Get returns a canvas after the ownership check.
func (s *Service) Get(ctx context.Context, canvasID, userID string) (*domain.Canvas, error) {
	return s.authorize(ctx, canvasID, userID)
}

// Update applies a partial metadata/viewport update.
func (s *Service) Update(ctx context.Context, canvasID, userID string, upd CanvasUpdate) (*domain.Canvas, error) {
	c, err := s.authorize(ctx, canvasID, userID)
	if err != nil {
		return nil, err
	}

	if upd.ViewportScale != nil && *upd.ViewportScale <= 0 {
		return nil, ErrInvalidViewport
	}

	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.ViewportX != nil {
		c.ViewportX = *upd.ViewportX
	}
	if upd.ViewportY != nil {
		c.ViewportY = *upd.ViewportY
	}
	if upd.ViewportScale != nil {
		c.ViewportScale = *upd.ViewportScale
	}

	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, fmt.Errorf("update canvas: %w", err)
	}
	return c, nil
}

// Delete removes a canvas together with all its objects, areas, and
// sessions in one transaction.
func (s *Service) Delete(ctx context.Context, canvasID, userID string) error {
	if _, err := s.authorize(ctx, canvasID, userID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("canvas_id = ?", canvasID).Delete(&domain.CanvasObject{}).Error; err != nil {
			return fmt.Errorf("delete objects: %w", err)
		}
		if err := tx.Where("canvas_id = ?", canvasID).Delete(&domain.CollaborationArea{}).Error; err != nil {
			return fmt.Errorf("delete areas: %w", err)
		}
		if err := tx.Where("canvas_id = ?", canvasID).Delete(&domain.CanvasSession{}).Error; err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if err := tx.Delete(&domain.Canvas{}, "id = ?", canvasID).Error; err != nil {
			return fmt.Errorf("delete canvas: %w", err)
		}
		return nil
	})
}

// CreateObject adds one object to a canvas.
func (s *Service) CreateObject(ctx context.Context, canvasID, userID string, in ObjectInput) (*domain.CanvasObject, error) {
	if _, err := s.authorize(ctx, canvasID, userID); err != nil {
		return nil, err
	}
	if !domain.ValidObjectType(in.Type) {
		return nil, ErrInvalidType
	}

	obj := domain.CanvasObject{
		CanvasID:   canvasID,
		ObjectID:   typeid.NewObjectID(),
		Type:       in.Type,
		X:          in.X,
		Y:          in.Y,
		Width:      in.Width,
		Height:     in.Height,
		Rotation:   in.Rotation,
		Content:    in.Content,
		Color:      in.Color,
		FontSize:   in.FontSize,
		FontFamily: in.FontFamily,
		ImageURL:   in.ImageURL,
		Points:     in.Points,
		CreatedBy:  userID,
	}
	applyObjectDefaults(&obj)

	if err := s.db.WithContext(ctx).Create(&obj).Error; err != nil {
		return nil, fmt.Errorf("create object: %w", err)
	}
	return &obj, nil
}

// UpdateObject applies a partial update to the object with the given
// external id.
func (s *Service) UpdateObject(ctx context.Context, objectID, userID string, upd ObjectUpdate) (*domain.CanvasObject, error) {
	var obj domain.CanvasObject
	err := s.db.WithContext(ctx).Where("object_id = ?", objectID).First(&obj).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	if _, err := s.authorize(ctx, obj.CanvasID, userID); err != nil {
		return nil, err
	}

	if upd.Type != nil {
		if !domain.ValidObjectType(*upd.Type) {
			return nil, ErrInvalidType
		}
		obj.Type = *upd.Type
	}
	if upd.X != nil {
		obj.X = *upd.X
	}
	if upd.Y != nil {
		obj.Y = *upd.Y
	}
	if upd.Width != nil {
		obj.Width = *upd.Width
	}
	if upd.Height != nil {
		obj.Height = *upd.Height
	}
	if upd.Rotation != nil {
		obj.Rotation = *upd.Rotation
	}
	if upd.Content != nil {
		obj.Content = *upd.Content
	}
	if upd.Color != nil {
		obj.Color = *upd.Color
	}
	if upd.FontSize != nil {
		obj.FontSize = *upd.FontSize
	}
	if upd.FontFamily != nil {
		obj.FontFamily = *upd.FontFamily
	}
	if upd.ImageURL != nil {
		obj.ImageURL = *upd.ImageURL
	}
	if upd.Points != nil {
		obj.Points = upd.Points
	}

	if err := s.db.WithContext(ctx).Save(&obj).Error; err != nil {
		return nil, fmt.Errorf("update object: %w", err)
	}
	return &obj, nil
}

// DeleteObject removes the object with the given external id.
func (s *Service) DeleteObject(ctx context.Context, objectID, userID string) error {
	var obj domain.CanvasObject
	err := s.db.WithContext(ctx).Where("object_id = ?", objectID).First(&obj).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get object: %w", err)
	}
	if _, err := s.authorize(ctx, obj.CanvasID, userID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&obj).Error; err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// CreateArea adds one collaboration area to a canvas.
func (s *Service) CreateArea(ctx context.Context, canvasID, userID string, in AreaInput) (*domain.CollaborationArea, error) {
	if _, err := s.authorize(ctx, canvasID, userID); err != nil {
		return nil, err
	}

	area := domain.CollaborationArea{
		CanvasID:      canvasID,
		AreaID:        typeid.NewAreaID(),
		Name:          in.Name,
		X:             in.X,
		Y:             in.Y,
		Width:         in.Width,
		Height:        in.Height,
		Color:         in.Color,
		AssignedUsers: in.AssignedUsers,
		CreatedBy:     userID,
	}
	if area.Color == "" {
		area.Color = domain.DefaultAreaColor
	}
	if area.AssignedUsers == nil {
		area.AssignedUsers = []string{}
	}

	if err := s.db.WithContext(ctx).Create(&area).Error; err != nil {
		return nil, fmt.Errorf("create area: %w", err)
	}
	return &area, nil
}

// UpdateArea applies a partial update to the area with the given external id.
func (s *Service) UpdateArea(ctx context.Context, areaID, userID string, upd AreaUpdate) (*domain.CollaborationArea, error) {
	area, err := s.findArea(ctx, areaID, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		area.Name = *upd.Name
	}
	if upd.X != nil {
		area.X = *upd.X
	}
	if upd.Y != nil {
		area.Y = *upd.Y
	}
	if upd.Width != nil {
		area.Width = *upd.Width
	}
	if upd.Height != nil {
		area.Height = *upd.Height
	}
	if upd.Color != nil {
		area.Color = *upd.Color
	}
	if upd.AssignedUsers != nil {
		area.AssignedUsers = upd.AssignedUsers
	}

	if err := s.db.WithContext(ctx).Save(area).Error; err != nil {
		return nil, fmt.Errorf("update area: %w", err)
	}
	return area, nil
}

// DeleteArea removes the area with the given external id.
func (s *Service) DeleteArea(ctx context.Context, areaID, userID string) error {
	area, err := s.findArea(ctx, areaID, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(area).Error; err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	return nil
}

// AssignUser adds a user to an area's assignment set. Assigning a user who
// is already present is a no-op.
func (s *Service) AssignUser(ctx context.Context, areaID, userID, targetUserID string) error {
	area, err := s.findArea(ctx, areaID, userID)
	if err != nil {
		return err
	}

	for _, u := range area.AssignedUsers {
		if u == targetUserID {
			return nil
		}
	}
	area.AssignedUsers = append(area.AssignedUsers, targetUserID)

	if err := s.db.WithContext(ctx).Save(area).Error; err != nil {
		return fmt.Errorf("assign user: %w", err)
	}
	return nil
}

// UnassignUser removes a user from an area's assignment set.
func (s *Service) UnassignUser(ctx context.Context, areaID, userID, targetUserID string) error {
	area, err := s.findArea(ctx, areaID, userID)
	if err != nil {
		return err
	}

	kept := area.AssignedUsers[:0]
	for _, u := range area.AssignedUsers {
		if u != targetUserID {
			kept = append(kept, u)
		}
	}
	area.AssignedUsers = kept

	if err := s.db.WithContext(ctx).Save(area).Error; err != nil {
		return fmt.Errorf("unassign user: %w", err)
	}
	return nil
}

// SaveState replaces the entire object and area set of a canvas and updates
// the viewport, all in one transaction. Last writer wins at whole-canvas
// granularity: there is no version token and no partial merge.
func (s *Service) SaveState(ctx context.Context, canvasID, userID string, state State) error {
	c, err := s.authorize(ctx, canvasID, userID)
	if err != nil {
		return err
	}

	// A zero scale means the client omitted the viewport; anything negative
	// is rejected to keep the scale invariant.
	if state.Viewport.Scale < 0 {
		return ErrInvalidViewport
	}
	if state.Viewport.Scale == 0 {
		state.Viewport.Scale = 1.0
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The canvas row must be written before the deletes: its row lock
		// serializes competing bulk saves, so two writers cannot interleave
		// their delete/insert phases.
		c.ViewportX = state.Viewport.X
		c.ViewportY = state.Viewport.Y
		c.ViewportScale = state.Viewport.Scale
		c.UpdatedAt = time.Now()
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("update viewport: %w", err)
		}

		if err := tx.Where("canvas_id = ?", canvasID).Delete(&domain.CanvasObject{}).Error; err != nil {
			return fmt.Errorf("clear objects: %w", err)
		}
		if err := tx.Where("canvas_id = ?", canvasID).Delete(&domain.CollaborationArea{}).Error; err != nil {
			return fmt.Errorf("clear areas: %w", err)
		}

		for i := range state.Objects {
			obj := state.Objects[i]
			obj.ID = 0
			obj.CanvasID = canvasID
			if obj.ObjectID == "" {
				obj.ObjectID = typeid.NewObjectID()
			}
			if obj.CreatedBy == "" {
				obj.CreatedBy = userID
			}
			applyObjectDefaults(&obj)
			if err := tx.Create(&obj).Error; err != nil {
				return fmt.Errorf("insert object: %w", err)
			}
		}

		for i := range state.Areas {
			area := state.Areas[i]
			area.ID = 0
			area.CanvasID = canvasID
			if area.AreaID == "" {
				area.AreaID = typeid.NewAreaID()
			}
			if area.CreatedBy == "" {
				area.CreatedBy = userID
			}
			if area.Color == "" {
				area.Color = domain.DefaultAreaColor
			}
			if area.AssignedUsers == nil {
				area.AssignedUsers = []string{}
			}
			if err := tx.Create(&area).Error; err != nil {
				return fmt.Errorf("insert area: %w", err)
			}
		}
		return nil
	})
}

// LoadState returns the current full snapshot, reflecting the last bulk
// save and any fine-grained mutations since, never the live broadcast
// stream.
func (s *Service) LoadState(ctx context.Context, canvasID, userID string) (*State, error) {
	c, err := s.authorize(ctx, canvasID, userID)
	if err != nil {
		return nil, err
	}

	objects, areas, err := s.contents(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	return &State{
		Objects: objects,
		Areas:   areas,
		Viewport: Viewport{
			X:     c.ViewportX,
			Y:     c.ViewportY,
			Scale: c.ViewportScale,
		},
	}, nil
}

// Statistics returns object/area counts, the active-user count, the last
// activity timestamp, and the bounding box.
func (s *Service) Statistics(ctx context.Context, canvasID, userID string) (*Statistics, error) {
	c, err := s.authorize(ctx, canvasID, userID)
	if err != nil {
		return nil, err
	}

	objects, areas, err := s.contents(ctx, canvasID)
	if err != nil {
		return nil, err
	}

	activeCount, err := s.active.CountActive(ctx, canvasID)
	if err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	bounds, _ := StateBounds(objects, areas)
	return &Statistics{
		TotalObjects: len(objects),
		TotalAreas:   len(areas),
		ActiveUsers:  activeCount,
		LastActivity: c.UpdatedAt,
		CanvasSize:   bounds,
	}, nil
}

func (s *Service) contents(ctx context.Context, canvasID string) ([]domain.CanvasObject, []domain.CollaborationArea, error) {
	var objects []domain.CanvasObject
	if err := s.db.WithContext(ctx).Where("canvas_id = ?", canvasID).Order("id").Find(&objects).Error; err != nil {
		return nil, nil, fmt.Errorf("list objects: %w", err)
	}
	var areas []domain.CollaborationArea
	if err := s.db.WithContext(ctx).Where("canvas_id = ?", canvasID).Order("id").Find(&areas).Error; err != nil {
		return nil, nil, fmt.Errorf("list areas: %w", err)
	}
	return objects, areas, nil
}

func (s *Service) findArea(ctx context.Context, areaID, userID string) (*domain.CollaborationArea, error) {
	var area domain.CollaborationArea
	err := s.db.WithContext(ctx).Where("area_id = ?", areaID).First(&area).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get area: %w", err)
	}
	if _, err := s.authorize(ctx, area.CanvasID, userID); err != nil {
		return nil, err
	}
	return &area, nil
}

// authorize loads the canvas and verifies the caller owns its project.
func (s *Service) authorize(ctx context.Context, canvasID, userID string) (*domain.Canvas, error) {
	var c domain.Canvas
	err := s.db.WithContext(ctx).First(&c, "id = ?", canvasID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	if err := s.checkProjectOwner(ctx, c.ProjectID, userID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) checkProjectOwner(ctx context.Context, projectID, userID string) error {
	err := s.projects.CheckOwner(ctx, projectID, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, project.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, project.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}

func applyObjectDefaults(obj *domain.CanvasObject) {
	if obj.Color == "" {
		obj.Color = domain.DefaultObjectColor
	}
	if obj.FontSize == 0 {
		obj.FontSize = domain.DefaultFontSize
	}
	if obj.FontFamily == "" {
		obj.FontFamily = domain.DefaultFontFamily
	}
}
