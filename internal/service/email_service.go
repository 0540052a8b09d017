package service

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/Dutta2005/TrustCircle/config"
	"github.com/Dutta2005/TrustCircle/internal/repository/interfaces"
	"github.com/Dutta2005/TrustCircle/internal/util"
	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

type EmailService struct {
	smtpHost    string
	smtpPort    int
	username    string
	password    string
	userRepo    interfaces.UserRepository
	jwtSecret   string
	frontendURL string
}

func NewEmailService(userRepo interfaces.UserRepository) *EmailService {
	return &EmailService{
		smtpHost:    config.AppConfig.SMTPHost,
		smtpPort:    config.AppConfig.SMTPPort,
		username:    config.AppConfig.SMTPUsername,
		password:    config.AppConfig.SMTPPassword,
		userRepo:    userRepo,
		jwtSecret:   config.AppConfig.JWTSecret,
		frontendURL: config.AppConfig.FrontendURL,
	}
}

func (s *EmailService) SendVerificationEmail(email, name string) error {
	token, err := s.generateEmailVerificationToken(email)
	if err != nil {
		util.Logger.Error("生成验证令牌失败", zap.Error(err))
		return fmt.Errorf("生成验证令牌失败: %w", err)
	}

	verificationLink := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)

	subject := "验证您的邮箱 - TrustCircle"
	body := fmt.Sprintf("亲爱的 %s，\n\n欢迎加入 TrustCircle。请点击以下链接验证您的邮箱：\n%s\n\n此链接将在24小时后过期。", name, verificationLink)

	s.sendEmailAsync(email, subject, body)
	return nil
}

// SendBookingNotification 订单状态变更通知
func (s *EmailService) SendBookingNotification(email, name, serviceTitle, status string) {
	subject := fmt.Sprintf("订单状态更新 - %s", serviceTitle)
	body := fmt.Sprintf("亲爱的 %s，\n\n您的订单「%s」当前状态为：%s。\n\n登录 TrustCircle 查看详情：%s", name, serviceTitle, status, s.frontendURL)
	s.sendEmailAsync(email, subject, body)
}

func (s *EmailService) sendEmailAsync(to, subject, body string) {
	go func() {
		if err := s.sendEmail(to, subject, body); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err), zap.String("to", to))
		}
	}()
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	util.Logger.Info("开始发送邮件",
		zap.String("to", to),
		zap.String("subject", subject))

	m := mail.NewMessage()
	m.SetHeader("From", s.username)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := mail.NewDialer(s.smtpHost, s.smtpPort, s.username, s.password)
	d.Timeout = 20 * time.Second
	d.SSL = true
	d.TLSConfig = &tls.Config{InsecureSkipVerify: true}

	if err := d.DialAndSend(m); err != nil {
		util.Logger.Error("发送邮件失败", zap.Error(err))
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.String("to", to))
	return nil
}

func (s *EmailService) generateEmailVerificationToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyEmailToken 校验邮箱验证令牌，返回其中的邮箱
func (s *EmailService) VerifyEmailToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		util.Logger.Error("解析令牌失败", zap.Error(err))
		return "", fmt.Errorf("无效的令牌: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		email, ok := claims["email"].(string)
		if !ok {
			util.Logger.Error("令牌中缺少邮箱信息")
			return "", fmt.Errorf("无效的令牌: 缺少邮箱信息")
		}
		return email, nil
	}

	return "", fmt.Errorf("无效的令牌")
}

func (s *EmailService) SendPasswordResetEmail(email string) error {
	token, err := s.generatePasswordResetToken(email)
	if err != nil {
		util.Logger.Error("生成密码重置令牌失败", zap.Error(err))
		return fmt.Errorf("生成密码重置令牌失败: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)

	subject := "重置您的密码 - TrustCircle"
	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="zh-CN">
	<head>
		<meta charset="UTF-8">
		<title>重置您的密码</title>
	</head>
	<body>
		<h2>密码重置请求</h2>
		<p>亲爱的用户，</p>
		<p>我们收到了您的密码重置请求。如果这不是您本人操作，请忽略此邮件。</p>
		<p>要重置您的密码，请点击下面的链接：</p>
		<p><a href="%s">重置密码</a></p>
		<p>或者将以下链接复制到浏览器地址栏：</p>
		<p>%s</p>
		<p>此链接将在1小时后过期。</p>
		<p>此邮件由系统自动发送，请勿直接回复。</p>
	</body>
	</html>
	`, resetLink, resetLink)

	s.sendEmailAsync(email, subject, body)
	return nil
}

func (s *EmailService) generatePasswordResetToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(1 * time.Hour).Unix(),
		"type":  "password_reset",
	})
	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyPasswordResetToken 校验密码重置令牌，返回其中的邮箱
func (s *EmailService) VerifyPasswordResetToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		util.Logger.Error("解析密码重置令牌失败", zap.Error(err))
		return "", fmt.Errorf("无效的令牌: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		email, ok := claims["email"].(string)
		if !ok {
			util.Logger.Error("令牌中缺少邮箱信息")
			return "", fmt.Errorf("无效的令牌: 缺少邮箱信息")
		}

		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != "password_reset" {
			util.Logger.Error("无效的令牌类型")
			return "", fmt.Errorf("无效的令牌类型")
		}

		return email, nil
	}

	return "", fmt.Errorf("无效的令牌")
}
