// Package repository 封装数据访问：接口在上，gorm/redis 实现在下。
package repository

import "gorm.io/gorm"

// mustAffect 校验写语句确实命中了行。
// 行级授权以注入谓词的方式生效：越权的更新/删除匹配到零行，
// 统一折算成 ErrRecordNotFound，拒绝与不存在对调用方不可区分。
func mustAffect(tx *gorm.DB) error {
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
