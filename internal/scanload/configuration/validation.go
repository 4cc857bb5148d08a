package configuration

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/common/scanerrors"
)

func (c ScanLoadConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	for _, job := range c.Jobs {
		if err := job.validateTable(); err != nil {
			return err
		}
	}
	return nil
}

func (c ScanJobConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.validateTable()
}

func (c ScanJobConfig) validateTable() error {
	if c.Table.Name == "" {
		return errors.WithStack(&scanerrors.ErrInvalidArgument{
			Name:    "Table",
			Value:   c.Table.String(),
			Message: "not provided",
		})
	}
	if c.Type != FullPartitionScan {
		return nil
	}
	if c.Table.IsRandom() {
		return errors.WithStack(&scanerrors.ErrInvalidArgument{
			Name:    "Table",
			Value:   c.Table.String(),
			Message: "partition scans need a concrete table to resolve its clustering order",
		})
	}
	if c.PkName == "" || c.CkName == "" {
		return errors.WithStack(&scanerrors.ErrInvalidArgument{
			Name:    "PkName/CkName",
			Value:   c.PkName + "/" + c.CkName,
			Message: "partition scans need both key column names",
		})
	}
	if c.RowsCount <= 0 {
		return errors.WithStack(&scanerrors.ErrInvalidArgument{
			Name:    "RowsCount",
			Value:   c.RowsCount,
			Message: "partition scans need a positive number of rows per partition",
		})
	}
	return nil
}
