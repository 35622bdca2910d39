package models

import (
	"slices"
	"time"
)

// NotificationType: закрытый набор типов уведомлений.
type NotificationType string

const (
	NotificationTrip      NotificationType = "trip"
	NotificationLike      NotificationType = "like"
	NotificationComment   NotificationType = "comment"
	NotificationSystem    NotificationType = "system"
	NotificationReminder  NotificationType = "reminder"
	NotificationTypeEvent NotificationType = "event"
)

var notificationTypes = []NotificationType{
	NotificationTrip,
	NotificationLike,
	NotificationComment,
	NotificationSystem,
	NotificationReminder,
	NotificationTypeEvent,
}

// Valid сообщает, входит ли тип в закрытый набор.
func (t NotificationType) Valid() bool {
	return slices.Contains(notificationTypes, t)
}

// Notification: запись ленты уведомлений.
// Timestamp авторитетен, Time хранит кэш строки давности для отображения.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Icon      string           `json:"icon,omitempty"`
	Time      string           `json:"time"`
	Timestamp time.Time        `json:"timestamp"`
	IsRead    bool             `json:"isRead"`
}

// NotificationEvent: входные данные для создания уведомления.
type NotificationEvent struct {
	Type    NotificationType `json:"type" validate:"required"`
	Title   string           `json:"title" validate:"required"`
	Message string           `json:"message" validate:"required"`
	Icon    string           `json:"icon,omitempty"`
}
